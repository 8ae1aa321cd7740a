package mqtt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ehsim/core/problem"
	"github.com/kilianp07/ehsim/core/translate"
)

// generateCert writes a self-signed certificate, its key and a CA bundle.
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	caFile = filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o644))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0o644))
	require.NoError(t, os.WriteFile(caFile, certPEM, 0o644))
	return
}

func withMockClient(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}

var chpID = uuid.MustParse("30000000-0000-0000-0000-000000000001")

func sampleMessage() ScheduleMessage {
	return ScheduleMessage{
		RunID: "run-1",
		Time:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Cost:  2.745,
		Schedule: &problem.Snapshot{
			Scheme: "binary-fullrange",
			Length: 2,
			Parts: []problem.PartSchedule{
				{ID: chpID, Name: "chp", Blocks: []translate.Values{{Type: translate.Boolean, Booleans: []bool{true, false}}}},
				{ID: uuid.New(), Name: "tank"},
			},
		},
	}
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	require.NoError(t, err)
	assert.NotEmpty(t, tlsCfg.Certificates)
	assert.NotNil(t, tlsCfg.RootCAs)

	_, err = Config{UseTLS: true}.LoadTLSConfig()
	assert.Error(t, err)
}

func TestNewClientOptionsAuth(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, "p", opts.Password)

	opts, err = NewClientOptions(Config{Broker: "tcp://localhost:1883", Username: "u", AuthMethod: "certificate"})
	require.NoError(t, err)
	assert.Empty(t, opts.Username)
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	assert.False(t, cfg.Enabled())
	cfg.SetDefaults()
	assert.Equal(t, DefaultScheduleTopic, cfg.ScheduleTopic)
	assert.Equal(t, "ehsim", cfg.ClientID)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.NoError(t, cfg.Validate())

	assert.Error(t, Config{QoS: 3}.Validate())
	assert.Error(t, Config{UseTLS: true}.Validate())
}

func TestPublishSchedule(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	pub, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", ScheduleTopic: "home/schedule/", QoS: 1, Retain: true})
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.PublishSchedule(context.Background(), sampleMessage()))
	require.Len(t, mc.published, 2)
	assert.Equal(t, "home/schedule/", mc.published[0].topic)
	assert.Equal(t, byte(1), mc.published[0].qos)
	assert.True(t, mc.published[0].retained)
	assert.Equal(t, "home/schedule/"+chpID.String(), mc.published[1].topic)

	var got ScheduleMessage
	require.NoError(t, json.Unmarshal(mc.published[0].payload, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 2.745, got.Cost)
	require.Len(t, got.Schedule.Parts, 2)
	assert.Equal(t, []bool{true, false}, got.Schedule.Parts[0].Blocks[0].Booleans)

	var part PartMessage
	require.NoError(t, json.Unmarshal(mc.published[1].payload, &part))
	assert.Equal(t, "chp", part.Part.Name)
	assert.Equal(t, chpID, part.Part.ID)
}

func TestRetryLogic(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	withMockClient(t, mc)
	pub, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)

	msg := sampleMessage()
	msg.Schedule = nil
	require.NoError(t, pub.PublishSchedule(context.Background(), msg))
	assert.Len(t, mc.published, 2)
}

func TestRetryExhausted(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail}}
	withMockClient(t, mc)
	pub, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 2, BackoffMS: 1})
	require.NoError(t, err)

	err = pub.PublishSchedule(context.Background(), sampleMessage())
	assert.ErrorIs(t, err, fail)
	assert.Len(t, mc.published, 3)
}

func TestPublishAfterClose(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	pub, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)
	pub.Close()
	assert.ErrorIs(t, pub.PublishSchedule(context.Background(), sampleMessage()), ErrNotConnected)
}

func TestLWTConfigured(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	pub, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", ClientID: "id", LWTTopic: "lwt", LWTPayload: "bye", LWTQoS: 1})
	require.NoError(t, err)
	assert.True(t, mc.opts.WillEnabled)
	assert.Equal(t, "lwt", mc.opts.WillTopic)
	assert.Equal(t, "bye", string(mc.opts.WillPayload))
	pub.Close()
	assert.Empty(t, mc.published)
}

func TestMockPublisher(t *testing.T) {
	m := NewMockPublisher()
	require.NoError(t, m.PublishSchedule(context.Background(), sampleMessage()))
	m.Fail = true
	assert.Error(t, m.PublishSchedule(context.Background(), sampleMessage()))
	assert.Len(t, m.Sent(), 1)
	m.Close()
	assert.True(t, m.Closed)
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// mockClient implements paho.Client for tests.
type mockClient struct {
	opts        *paho.ClientOptions
	published   []published
	publishErrs []error
	closed      bool
}

func (m *mockClient) IsConnected() bool { return !m.closed }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) { m.closed = true }
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	b, _ := payload.([]byte)
	m.published = append(m.published, published{topic, qos, retained, b})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}
func (m *mockClient) Subscribe(string, byte, paho.MessageHandler) paho.Token { return &dummyToken{} }
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(...string) paho.Token        { return &dummyToken{} }
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (m *mockClient) IsConnectionOpen() bool                  { return !m.closed }

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }
