package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xela07ax/superai/internal/feed"
)

// feedCmd represents the feed command
var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Follow the supervisor feed (one JSON event per line)",
	Long: `Subscribe to the Redis channel where the proxy publishes completed
analyses and agent triggers. Reconnects automatically until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfigAndLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if !cfg.Redis.Enabled() {
			return errors.New("redis.addr is not configured")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rdb := newRedisClient(cfg.Redis)
		defer rdb.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		feed.Listen(ctx, rdb, logger.Named("feed"), cfg.Redis.Channel, func(e feed.Event) {
			_ = enc.Encode(e)
		})
		return nil
	},
}
