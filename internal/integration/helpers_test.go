//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

// startKafka runs a single-node broker in a container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("integration"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates the topic up front so the writer's first metadata
// fetch does not race auto-creation.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type gridRow struct {
	geom.Polygon
	Row int
}

// writeGrid writes four 1-degree cells in a 2x2 block with its lower-left
// corner at (-73, 41), row-major so IDs run 0..3 bottom-left to top-right.
func writeGrid(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "grid.shp")
	enc, err := shp.NewEncoder(path, gridRow{})
	require.NoError(t, err)

	n := 0
	for _, y := range []float64{41, 42} {
		for _, x := range []float64{-73, -72} {
			poly := geom.Polygon{{
				{X: x, Y: y},
				{X: x + 1, Y: y},
				{X: x + 1, Y: y + 1},
				{X: x, Y: y + 1},
			}}
			require.NoError(t, enc.Encode(gridRow{Polygon: poly, Row: n}))
			n++
		}
	}
	enc.Close()
	return path
}

// writeObservations writes five rows: two in cell 0 sharing a timestamp,
// one each in cells 1 and 3, and one far outside the grid.
func writeObservations(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "observations.csv")
	rows := []string{
		"time,latitude,longitude,t2m",
		"2022-01-02 00:00:00,41.5,-72.5,270.0",
		"2022-01-02 00:00:00,41.5,-72.5,272.0",
		"2022-01-02 00:00:00,42.5,-71.5,280.0",
		"2022-01-02 01:00:00,41.5,-71.5,281.0",
		"2022-01-02 00:00:00,50.0,-60.0,300.0",
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(rows, "\n")+"\n"), 0o644))
	return path
}
