package main

import (
	"context"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/camnode/cmd"
	"github.com/smazurov/camnode/internal/config"
	"github.com/smazurov/camnode/internal/console"
	"github.com/smazurov/camnode/internal/version"
)

func main() {
	prompter := console.NewPrompter(os.Stdout)

	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			prompter.Warn("failed to load config: %v", loadErr)
		}

		ctx, cancel := context.WithCancel(context.Background())
		finished := make(chan struct{})

		hooks.OnStart(func() {
			defer close(finished)

			p, err := resolveOptions(opts, time.Now())
			if err != nil {
				prompter.Error(err)
				os.Exit(1)
			}
			for _, w := range optionWarnings(opts, p.mode, config.ChangedFlags(cli.Root())) {
				prompter.Warn("%s", w)
			}

			a := &app{opts: opts, plan: p, prompter: prompter}
			if err := a.run(ctx); err != nil {
				prompter.Error(err)
				os.Exit(1)
			}
		})

		// Signals end the interaction loop; wait for the drain before exiting
		hooks.OnStop(func() {
			cancel()
			<-finished
		})
	})

	cli.Root().Use = "camnode"
	cli.Root().Short = "Machine-vision frame acquisition node"
	cli.Root().Version = version.String()
	cli.Root().AddCommand(cmd.CreateROICmd())
	cli.Root().AddCommand(cmd.CreateTimingCmd())

	cli.Run()
}
