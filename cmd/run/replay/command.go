package replay

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	beaconjson "github.com/snowfork/ethereum-light-client/beacon/json"
	"github.com/snowfork/ethereum-light-client/cmd/host"
)

var (
	configFile   string
	messagesFile string
	logLevel     string
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Apply a file of contract calls to the store in order",
		Args:  cobra.ExactArgs(0),
		RunE:  run,
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to configuration file")
	cmd.MarkFlagRequired("config")

	cmd.Flags().StringVar(&messagesFile, "messages", "", "JSON file with the list of messages")
	cmd.MarkFlagRequired("messages")

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level, overrides the configured level")

	return cmd
}

func run(_ *cobra.Command, _ []string) error {
	var messages []beaconjson.Message
	if err := host.ReadJSONFile(messagesFile, &messages); err != nil {
		return err
	}

	h, err := host.Open(configFile, "", logLevel)
	if err != nil {
		return err
	}
	defer h.Close()

	logrus.WithField("messages", len(messages)).Info("Replay started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	// Stop between messages upon SIGINT, SIGTERM
	eg.Go(func() error {
		notify := make(chan os.Signal, 1)
		signal.Notify(notify, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(notify)

		select {
		case <-ctx.Done():
			return nil
		case sig := <-notify:
			logrus.WithField("signal", sig.String()).Info("Received signal")
			cancel()
		}

		return nil
	})

	eg.Go(func() error {
		defer cancel()

		result, err := Apply(ctx, h.Contract, messages)
		logrus.WithFields(logrus.Fields{
			"applied":  result.Applied,
			"rejected": result.Rejected,
		}).Info("Replay finished")
		if err != nil {
			return err
		}
		return host.PrintJSON(result)
	})

	err = eg.Wait()
	if err != nil {
		logrus.WithError(err).Error("Replay aborted")
		return err
	}

	return nil
}
