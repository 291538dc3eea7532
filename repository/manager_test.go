package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/goliatone/go-taskboard/logging"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func stubSQLOpener(t *testing.T, pingErr error) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	expectation := mock.ExpectPing()
	if pingErr != nil {
		expectation.WillReturnError(pingErr)
	}

	original := sqlOpener
	sqlOpener = func(string, string) (*sql.DB, error) {
		return db, nil
	}
	t.Cleanup(func() {
		sqlOpener = original
	})
	return mock
}

func TestOpen_FallsBackToMemoryWhenUnreachable(t *testing.T) {
	mock := stubSQLOpener(t, errors.New("connection refused"))

	m, err := Open(context.Background(), Config{
		Driver:           DriverPostgres,
		DSN:              "postgres://localhost/taskboard",
		FallbackToMemory: true,
		AutoMigrate:      true,
	}, logging.Nop())
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, m.Driver())
	assert.NoError(t, m.Validate())
	assert.NoError(t, m.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_FailsWithoutFallback(t *testing.T) {
	stubSQLOpener(t, errors.New("connection refused"))

	m, err := Open(context.Background(), Config{
		Driver: DriverPostgres,
		DSN:    "postgres://localhost/taskboard",
	}, logging.Nop())

	assert.Nil(t, m)
	assert.Error(t, err)
}

func TestOpen_UsesReachableBackend(t *testing.T) {
	mock := stubSQLOpener(t, nil)

	m, err := Open(context.Background(), Config{
		Driver:           DriverPostgres,
		DSN:              "postgres://localhost/taskboard",
		FallbackToMemory: true,
		ConnectTimeout:   time.Second,
	}, logging.Nop())
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, m.Driver())
	assert.NotNil(t, m.DB())
	assert.IsType(t, &BunUsers{}, m.Users())
	assert.IsType(t, &BunTasks{}, m.Tasks())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_Memory(t *testing.T) {
	m, err := Open(context.Background(), Config{Driver: "MEMORY"}, logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, m.Driver())

	applied, err := m.Migrate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.NoError(t, m.Close())
}

func TestOpen_SQLiteWithAutoMigrate(t *testing.T) {
	m, err := Open(context.Background(), Config{
		Driver:      DriverSQLite,
		DSN:         "file:manager_automigrate?mode=memory&cache=shared",
		AutoMigrate: true,
	}, logging.Nop())
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, DriverSQLite, m.Driver())
	assert.NoError(t, m.Ping(context.Background()))
	runUsersContract(t, m.Users())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "cassandra", FallbackToMemory: true}, logging.Nop())
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, isUniqueViolation(errors.New("UNIQUE constraint failed: users.email")))
	assert.True(t, isUniqueViolation(mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}))
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("disk full")))
}

func TestMongoDatabaseFromURI(t *testing.T) {
	assert.Equal(t, "boards", mongoDatabaseFromURI("mongodb://localhost:27017/boards"))
	assert.Equal(t, "taskboard", mongoDatabaseFromURI("mongodb://localhost:27017"))
}

func TestMongoBackend(t *testing.T) {
	uri := os.Getenv("TASKBOARD_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TASKBOARD_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	m, err := Open(ctx, Config{
		Driver:         DriverMongo,
		DSN:            uri,
		Database:       "taskboard_test_" + time.Now().Format("20060102150405"),
		AutoMigrate:    true,
		ConnectTimeout: 5 * time.Second,
	}, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = m.mdb.Drop(context.Background())
		_ = m.Close()
	})

	runUsersContract(t, m.Users())
	runTasksContract(t, m.Tasks())
}
