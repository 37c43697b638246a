package mongo

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	mongoImage = "mongo:7"
	mongoPort  = "27017/tcp"
)

// mongoURI is set when TestMain managed to start a container.
var mongoURI string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() || !dockerAvailable() {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	container, uri, err := startMongo(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mongo container unavailable: %v\n", err)
		os.Exit(m.Run())
	}
	mongoURI = uri

	code := m.Run()
	_ = container.Terminate(context.Background())
	os.Exit(code)
}

func dockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

func startMongo(ctx context.Context) (testcontainers.Container, string, error) {
	req := testcontainers.ContainerRequest{
		Image:        mongoImage,
		ExposedPorts: []string{mongoPort},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(mongoPort),
			wait.ForLog("Waiting for connections"),
		).WithStartupTimeout(2 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, "", fmt.Errorf("get host: %w", err)
	}
	port, err := container.MappedPort(ctx, mongoPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, "", fmt.Errorf("get mapped port: %w", err)
	}
	return container, fmt.Sprintf("mongodb://%s:%s", host, port.Port()), nil
}

// testDB returns an empty database with every index in place. It is
// dropped when the test ends.
func testDB(t *testing.T) *mongo.Database {
	t.Helper()
	if mongoURI == "" {
		t.Skip("Skipping test: MongoDB container not available")
	}

	client, err := ConnectDB(mongoURI)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	name := "fitness_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	db := client.Database(name)

	ctx := context.Background()
	EnsureIndexes(ctx, db)
	t.Cleanup(func() {
		if err := db.Drop(ctx); err != nil {
			t.Logf("Warning: failed to drop %s: %v", name, err)
		}
		_ = DisconnectDB(client)
	})
	return db
}
