// Command phenyld serves the phenyl data-access API over HTTP. Sessions live
// in Redis (or in memory when no Redis address is configured); entities live
// in PostgreSQL (or in memory when no DSN is configured).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nacam403/phenyl"
	"github.com/nacam403/phenyl/httpd"
	"github.com/nacam403/phenyl/session"
	"github.com/nacam403/phenyl/storage/memory"
	"github.com/nacam403/phenyl/storage/postgres"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "phenyld",
		Short:         "Serve the phenyl data-access API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.String("listen", ":8080", "listen address")
	flags.String("redis-addr", "", "redis address for sessions (empty: in-memory)")
	flags.String("postgres-dsn", "", "postgres DSN for entities (empty: in-memory)")
	flags.String("user-entity", "user", "entity name authenticated by the standard user strategy")
	flags.String("account-field", "account", "credential field holding the account name")
	flags.String("password-field", "password", "credential field holding the password")
	flags.Duration("session-ttl", 365*24*time.Hour, "session time-to-live")

	viper.SetEnvPrefix("PHENYL")
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
	return cmd
}

func run(ctx context.Context) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	sessions, err := sessionStore(logger)
	if err != nil {
		return err
	}
	backend, err := operationBackend(ctx, logger)
	if err != nil {
		return err
	}

	userDef := phenyl.NewStandardUserDefinition(viper.GetString("user-entity")).
		WithAccountField(viper.GetString("account-field")).
		WithPasswordField(viper.GetString("password-field")).
		WithSessionTTL(viper.GetDuration("session-ttl"))

	registry := phenyl.NewRegistry().RegisterUser(userDef)

	engine, err := phenyl.New().
		WithBackend(backend).
		WithSessionStore(sessions).
		WithRegistry(registry).
		WithLogger(logger).
		Build()
	if err != nil {
		return err
	}

	return httpd.New(engine, logger).Run(viper.GetString("listen"))
}

func sessionStore(logger *zap.Logger) (session.Store, error) {
	addr := viper.GetString("redis-addr")
	if addr == "" {
		logger.Warn("no redis address configured, sessions are in-memory")
		return session.NewMemoryStore(), nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return session.NewRedisStore(client, ""), nil
}

func operationBackend(ctx context.Context, logger *zap.Logger) (phenyl.OperationBackend, error) {
	dsn := viper.GetString("postgres-dsn")
	if dsn == "" {
		logger.Warn("no postgres DSN configured, entities are in-memory")
		return memory.New(), nil
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	return postgres.New(ctx, pool)
}
