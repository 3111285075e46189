package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MohitNegi1997/MoltenMotion/internal/checkout"
	"github.com/MohitNegi1997/MoltenMotion/internal/domain"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Follow placed orders on the checkout topic",
	}

	var group string
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Print every completed checkout as it arrives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(a.cfg.KafkaBrokers) == 0 {
				return errors.New("STOREFRONT_KAFKA_BROKERS is not set")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			consumer := checkout.NewConsumer(group, a.cfg.KafkaTopic, a.log, a.cfg.KafkaBrokers...)
			defer func() {
				if err := consumer.Close(); err != nil {
					a.log.Warn("failed to close kafka reader", zap.Error(err))
				}
			}()

			out := cmd.OutOrStdout()
			return consumer.Run(ctx, func(_ context.Context, r domain.Receipt) error {
				_, err := fmt.Fprintln(out, formatReceipt(r))
				return err
			})
		},
	}
	watch.Flags().StringVar(&group, "group", "storefront-orders", "kafka consumer group")

	cmd.AddCommand(watch)
	return cmd
}

func formatReceipt(r domain.Receipt) string {
	session := r.SessionID
	if session == "" {
		session = "local"
	}
	return fmt.Sprintf("%s  %s  order %s  session %s  %d item(s)  %s",
		r.PlacedAt.Local().Format("2006-01-02 15:04:05"),
		humanize.Time(r.PlacedAt),
		r.OrderID,
		session,
		r.Count,
		formatPrice(r.Total),
	)
}
