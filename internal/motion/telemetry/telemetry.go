// Package telemetry publishes rep events and session summaries to an MQTT
// broker so clinic dashboards can follow exercise progress without polling
// the device.
package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/motusrehab/motus/internal/monitoring"
	"github.com/motusrehab/motus/internal/motion/session"
)

// Topics, relative to the configured prefix.
const (
	topicRep     = "rep"
	topicSummary = "summary"
)

// RepEvent is the payload published for each accepted repetition.
type RepEvent struct {
	SessionID  string  `json:"session_id"`
	Profile    string  `json:"profile"`
	RepIndex   int     `json:"rep_index"`
	ROMDegrees float64 `json:"rom_degrees"`
}

// SessionSummary is the payload published when a session ends.
type SessionSummary struct {
	SessionID       string   `json:"session_id"`
	Profile         string   `json:"profile"`
	FinalRepCount   int      `json:"final_rep_count"`
	MaxROMDegrees   float64  `json:"max_rom_degrees"`
	DurationSec     float64  `json:"duration_sec"`
	SmoothnessScore *float64 `json:"smoothness_score,omitempty"`
}

// Config contains connection options for the publisher.
type Config struct {
	// BrokerURL is the MQTT broker, e.g. "tcp://localhost:1883".
	BrokerURL string

	// ClientID identifies this device to the broker.
	ClientID string

	// TopicPrefix roots the published topics, e.g. "motus/clinic-3".
	TopicPrefix string

	// ConnectTimeout bounds the initial connect; zero means 5s.
	ConnectTimeout time.Duration
}

// Publisher sends session telemetry over MQTT. Publishing is best-effort:
// a failed publish is logged and dropped, never surfaced to the sample
// path.
type Publisher struct {
	client mqtt.Client
	prefix string
}

// Connect dials the broker and returns a ready publisher.
func Connect(cfg Config) (*Publisher, error) {
	if cfg.BrokerURL == "" {
		return nil, fmt.Errorf("telemetry: broker URL is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("telemetry: connect %s: %w", cfg.BrokerURL, token.Error())
	}
	return &Publisher{client: client, prefix: cfg.TopicPrefix}, nil
}

// NewPublisher wraps an existing client; tests inject mocks here.
func NewPublisher(client mqtt.Client, topicPrefix string) *Publisher {
	return &Publisher{client: client, prefix: topicPrefix}
}

// Close disconnects from the broker, allowing in-flight messages a short
// grace period.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

// PublishRep sends one repetition event.
func (p *Publisher) PublishRep(ev RepEvent) {
	p.publish(topicRep, ev)
}

// PublishSummary sends an end-of-session summary built from the final
// snapshot.
func (p *Publisher) PublishSummary(snap session.Snapshot, smoothness *float64) {
	p.publish(topicSummary, SessionSummary{
		SessionID:       snap.ID,
		Profile:         snap.Profile,
		FinalRepCount:   snap.RepCount,
		MaxROMDegrees:   snap.MaxROMDegrees,
		DurationSec:     snap.DurationSec,
		SmoothnessScore: smoothness,
	})
}

func (p *Publisher) publish(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		monitoring.Logf("telemetry: marshal %s: %v", topic, err)
		return
	}
	full := p.prefix + "/" + topic
	token := p.client.Publish(full, 1, false, data)
	token.Wait()
	if err := token.Error(); err != nil {
		monitoring.Logf("telemetry: publish %s: %v", full, err)
	}
}
