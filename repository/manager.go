package repository

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-taskboard/auth"
	"github.com/goliatone/go-taskboard/logging"
	"github.com/goliatone/go-taskboard/tasks"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// DefaultSQLiteDSN is an in-process sqlite database shared by all connections
const DefaultSQLiteDSN = "file::memory:?cache=shared"

// Config selects and configures the storage backend
type Config struct {
	Driver           string
	DSN              string
	Database         string
	Debug            bool
	AutoMigrate      bool
	FallbackToMemory bool
	ConnectTimeout   time.Duration
}

// Manager exposes the repositories of the single active backend
type Manager struct {
	driver string
	users  auth.Users
	tasks  tasks.Repository

	db    *bun.DB
	mongo *mongo.Client
	mdb   *mongo.Database
}

// sqlOpener is replaced in tests
var sqlOpener = sql.Open

// Open connects to the configured backend. When the backend cannot be
// reached and FallbackToMemory is set, the memory backend is used for the
// lifetime of the process instead. There is no per call fallback.
func Open(ctx context.Context, cfg Config, logger logging.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.Default()
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverSQLite
	}

	var (
		m   *Manager
		err error
	)

	switch driver {
	case DriverMemory:
		return NewMemoryManager(), nil
	case DriverSQLite, DriverPostgres:
		m, err = openSQL(ctx, driver, cfg, logger)
	case DriverMongo:
		m, err = openMongo(ctx, cfg)
	default:
		return nil, errors.New(fmt.Sprintf("unknown persistence driver %q", cfg.Driver), errors.CategoryBadInput)
	}

	if err != nil {
		if cfg.FallbackToMemory {
			logger.Warn("persistence unavailable, using memory backend", "driver", driver, "error", err)
			return NewMemoryManager(), nil
		}
		return nil, err
	}

	if cfg.AutoMigrate {
		if _, err := m.Migrate(ctx); err != nil {
			_ = m.Close()
			return nil, err
		}
	}

	logger.Info("persistence ready", "driver", driver)
	return m, nil
}

// NewMemoryManager returns a manager backed by a fresh MemoryStore
func NewMemoryManager() *Manager {
	store := NewMemoryStore()
	return &Manager{
		driver: DriverMemory,
		users:  store.Users(),
		tasks:  store.Tasks(),
	}
}

// NewSQLManager wraps an open bun database
func NewSQLManager(db *bun.DB, driver string) *Manager {
	return &Manager{
		driver: driver,
		db:     db,
		users:  NewBunUsers(db),
		tasks:  NewBunTasks(db),
	}
}

func openSQL(ctx context.Context, driver string, cfg Config, logger logging.Logger) (*Manager, error) {
	var (
		sqlDriver = "postgres"
		dsn       = cfg.DSN
		dialect   schema.Dialect
	)

	if driver == DriverSQLite {
		sqlDriver = sqliteshim.ShimName
		dialect = sqlitedialect.New()
		if dsn == "" {
			dsn = DefaultSQLiteDSN
		}
	} else {
		dialect = pgdialect.New()
	}

	sqldb, err := sqlOpener(sqlDriver, dsn)
	if err != nil {
		return nil, internal(err, "failed to open database")
	}
	if driver == DriverSQLite {
		sqldb.SetMaxOpenConns(1)
	}

	db := bun.NewDB(sqldb, dialect)
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	pingCtx, cancel := withTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, internal(err, "failed to reach database")
	}

	logger.Debug("sql database connected", "driver", driver)
	return NewSQLManager(db, driver), nil
}

func openMongo(ctx context.Context, cfg Config) (*Manager, error) {
	connectCtx, cancel := withTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := ConnectMongo(connectCtx, cfg.DSN, cfg.ConnectTimeout)
	if err != nil {
		return nil, internal(err, "failed to reach mongo")
	}

	name := cfg.Database
	if name == "" {
		name = mongoDatabaseFromURI(cfg.DSN)
	}
	mdb := client.Database(name)

	return &Manager{
		driver: DriverMongo,
		mongo:  client,
		mdb:    mdb,
		users:  NewMongoUsers(mdb),
		tasks:  NewMongoTasks(mdb),
	}, nil
}

// Driver returns the name of the active backend
func (m *Manager) Driver() string {
	return m.driver
}

// Users returns the credential store
func (m *Manager) Users() auth.Users {
	return m.users
}

// Tasks returns the task store
func (m *Manager) Tasks() tasks.Repository {
	return m.tasks
}

// DB returns the bun database, nil unless a SQL backend is active
func (m *Manager) DB() *bun.DB {
	return m.db
}

// Validate checks every repository was wired
func (m *Manager) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized", errors.CategoryInternal)
	}
	if m.tasks == nil {
		return errors.New("repository tasks should be initialized", errors.CategoryInternal)
	}
	return nil
}

// Ping checks the backend is reachable
func (m *Manager) Ping(ctx context.Context) error {
	switch {
	case m.db != nil:
		return m.db.PingContext(ctx)
	case m.mongo != nil:
		return m.mongo.Ping(ctx, nil)
	default:
		return nil
	}
}

// Migrate brings the schema up to date and returns what was applied
func (m *Manager) Migrate(ctx context.Context) ([]string, error) {
	switch {
	case m.db != nil:
		return MigrateSQL(ctx, m.db, m.driver)
	case m.mdb != nil:
		if err := EnsureMongoIndexes(ctx, m.mdb); err != nil {
			return nil, err
		}
		return []string{"mongo indexes"}, nil
	default:
		return []string{}, nil
	}
}

// Close releases the backend connections
func (m *Manager) Close() error {
	switch {
	case m.db != nil:
		return m.db.Close()
	case m.mongo != nil:
		return m.mongo.Disconnect(context.Background())
	default:
		return nil
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func mongoDatabaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return "taskboard"
}
