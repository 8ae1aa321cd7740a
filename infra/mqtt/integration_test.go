//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const mosquittoConf = `listener 1883
allow_anonymous true
persistence false
`

// startMosquitto launches a disposable broker and returns its URL.
func startMosquitto(t *testing.T) string {
	t.Helper()
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mosquitto.conf")
	require.NoError(t, os.WriteFile(path, []byte(mosquittoConf), 0o644))

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{{
			HostFilePath:      path,
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0o644,
		}},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })

	host, err := cont.Host(ctx)
	require.NoError(t, err)
	port, err := cont.MappedPort(ctx, "1883")
	require.NoError(t, err)
	return fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func TestPublishScheduleIntegration(t *testing.T) {
	broker := startMosquitto(t)

	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("sub"))
	token := sub.Connect()
	require.True(t, token.WaitTimeout(5*time.Second))
	require.NoError(t, token.Error())
	defer sub.Disconnect(100)

	got := make(chan []byte, 4)
	token = sub.Subscribe(DefaultScheduleTopic+"/+", 1, func(_ paho.Client, m paho.Message) {
		got <- m.Payload()
	})
	require.True(t, token.WaitTimeout(5*time.Second))
	require.NoError(t, token.Error())

	pub, err := NewPahoPublisher(Config{Broker: broker, ClientID: "pub", QoS: 1})
	require.NoError(t, err)
	defer pub.Close()
	require.NoError(t, pub.PublishSchedule(context.Background(), sampleMessage()))

	select {
	case payload := <-got:
		var part PartMessage
		require.NoError(t, json.Unmarshal(payload, &part))
		assert.Equal(t, "run-1", part.RunID)
		assert.Equal(t, "chp", part.Part.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("no part schedule received")
	}
}
