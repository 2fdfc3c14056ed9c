package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	authhandler "pokevault/internal/auth/handler"
	authmetrics "pokevault/internal/auth/metrics"
	authservice "pokevault/internal/auth/service"
	"pokevault/internal/auth/store/passwordreset"
	"pokevault/internal/auth/store/revocation"
	userstore "pokevault/internal/auth/store/user"
	favhandler "pokevault/internal/favorites/handler"
	favservice "pokevault/internal/favorites/service"
	favstore "pokevault/internal/favorites/store"
	jwttoken "pokevault/internal/jwt_token"
	"pokevault/internal/mail"
	"pokevault/internal/platform/config"
	"pokevault/internal/platform/postgres"
	"pokevault/internal/platform/redis"
	"pokevault/internal/pokeapi"
	"pokevault/internal/pokeapi/cache"
	pokehandler "pokevault/internal/pokeapi/handler"
	pokemetrics "pokevault/internal/pokeapi/metrics"
	"pokevault/internal/pokeapi/upstream"
	httptransport "pokevault/internal/transport/http"
	"pokevault/pkg/platform/audit/publisher"
	"pokevault/pkg/platform/audit/sink"
	authmw "pokevault/pkg/platform/middleware/auth"
	"pokevault/pkg/platform/tx"
)

const (
	auditBufferSize = 256
	mailQueueSize   = 64
)

// infra holds the optional backing services. Either may be nil, in which case
// the in-memory stores are used.
type infra struct {
	db  *postgres.DB
	rdb *redis.Client
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	db, err := postgres.Open(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, err
	}
	if db != nil {
		if err := postgres.Migrate(ctx, db.DB, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}
	log.Info("backing services",
		"postgres", db != nil,
		"redis", rdb != nil,
	)
	return &infra{db: db, rdb: rdb}, nil
}

func (i *infra) Close() {
	if i.rdb != nil {
		_ = i.rdb.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

type stores struct {
	users     authservice.UserStore
	resets    authservice.ResetStore
	trl       revocation.List
	favorites favservice.Store
	cache     cache.Store
	tx        tx.Runner
}

func buildStores(ctx context.Context, i *infra, authMetrics *authmetrics.Metrics, log *slog.Logger) stores {
	s := stores{
		users:     userstore.New(),
		resets:    passwordreset.NewInMemory(),
		trl:       revocation.NewInMemoryTRL(),
		favorites: favstore.NewInMemory(),
		cache:     cache.NewMemoryStore(),
		tx:        tx.NoopRunner{},
	}
	if i.db != nil {
		s.users = userstore.NewPostgres(i.db.DB)
		s.resets = passwordreset.NewPostgres(i.db.DB)
		s.favorites = favstore.NewPostgres(i.db.DB)
		s.tx = tx.NewSQLRunner(i.db.DB)

		pgTRL := revocation.NewPostgresTRL(i.db.DB)
		if n, err := pgTRL.PurgeExpired(ctx); err != nil {
			log.Warn("purging expired revocations failed", "error", err)
		} else if n > 0 {
			log.Info("purged expired revocations", "count", n)
		}
		s.trl = pgTRL
	}
	if i.rdb != nil {
		s.trl = revocation.NewRedisTRL(i.rdb.Client, revocation.WithMetrics(authMetrics))
		s.cache = cache.NewRedisStore(i.rdb.Client)
	}
	return s
}

type modules struct {
	registrars []httptransport.Registrar
	closers    []func()
}

func (m *modules) Close() {
	for i := len(m.closers) - 1; i >= 0; i-- {
		m.closers[i]()
	}
}

func buildModules(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer, i *infra) (*modules, error) {
	m := &modules{}
	authMetrics := authmetrics.New(reg)
	st := buildStores(ctx, i, authMetrics, log)

	var auditSink publisher.Sink = sink.NewLogSink(log)
	if len(cfg.Kafka.Brokers) > 0 {
		ks, err := sink.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			return nil, fmt.Errorf("audit sink: %w", err)
		}
		m.closers = append(m.closers, ks.Close)
		auditSink = ks
	}
	auditPublisher := publisher.NewPublisher(auditSink,
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(log),
	)
	m.closers = append(m.closers, auditPublisher.Close)

	mailSender := mail.NewAsyncSender(mail.NewSender(cfg.Mail, log), mailQueueSize, log)
	m.closers = append(m.closers, mailSender.Close)

	jwt := jwttoken.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	authSvc := authservice.New(st.users, st.trl, st.resets, jwt,
		authservice.Config{
			TokenTTL:         cfg.Auth.TokenTTL,
			PasswordResetTTL: cfg.Auth.PasswordResetTTL,
			BcryptCost:       cfg.Auth.BcryptCost,
		},
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(auditPublisher),
		authservice.WithMetrics(authMetrics),
		authservice.WithTxRunner(st.tx),
		authservice.WithMailer(mail.NewMailer(mailSender, cfg.FrontendURL)),
	)

	validator := jwttoken.NewJWTServiceAdapter(jwt)
	var checker authmw.TokenRevocationChecker
	if cfg.Auth.EnforceRevocation {
		checker = revocation.Checker{List: st.trl}
	}
	requireAuth := authmw.RequireAuth(validator, checker, log)
	singleSession := authmw.RequireSingleSession(validator, authSvc, log)

	pokeMetrics := pokemetrics.New(reg)
	pokeSvc := pokeapi.New(
		upstream.New(cfg.PokeAPI, log, upstream.WithMetrics(pokeMetrics)),
		cache.New(st.cache, log, cache.WithMetrics(pokeMetrics)),
		cfg.PokeAPI,
		log,
	)
	favSvc := favservice.New(st.favorites, pokeSvc,
		favservice.WithLogger(log),
		favservice.WithAuditPublisher(auditPublisher),
	)

	m.registrars = []httptransport.Registrar{
		authhandler.New(authSvc, log, requireAuth),
		pokehandler.New(pokeSvc, cfg.PokeAPI, log),
		favhandler.New(favSvc, log, singleSession, requireAuth),
	}
	return m, nil
}
