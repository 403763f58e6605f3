package transport

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMQTTTopic is the telemetry topic a wearable gateway publishes to.
const DefaultMQTTTopic = "vitals/heart-rate"

// MQTT subscribes to a telemetry topic on an MQTT v5 broker. Each publish
// carries one JSON message.
type MQTT struct {
	Broker    string // host:port
	Topic     string
	ClientID  string
	QoS       byte
	KeepAlive uint16
	Logger    *zap.Logger
}

func NewMQTT(broker, topic, clientID string, logger *zap.Logger) *MQTT {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topic == "" {
		topic = DefaultMQTTTopic
	}
	if clientID == "" {
		clientID = "pulsedash-" + uuid.NewString()
	}
	return &MQTT{Broker: broker, Topic: topic, ClientID: clientID, QoS: 1, KeepAlive: 30, Logger: logger}
}

func (s *MQTT) Stream(ctx context.Context) (<-chan Event, error) {
	if s.Broker == "" {
		return nil, errors.New("mqtt: broker address is required")
	}
	em := newEmitter(ctx)
	go s.run(ctx, em)
	return em.out, nil
}

// onPublish adapts a paho publish callback onto the event stream.
func (s *MQTT) onPublish(em *emitter) func(paho.PublishReceived) (bool, error) {
	return func(pr paho.PublishReceived) (bool, error) {
		if pr.Packet == nil {
			return false, nil
		}
		em.payload(pr.Packet.Payload)
		return true, nil
	}
}

func (s *MQTT) run(ctx context.Context, em *emitter) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.Broker)
	if err != nil {
		em.close(fmt.Errorf("dial mqtt broker %s: %w", s.Broker, err))
		return
	}

	lost := make(chan error, 1)
	signal := func(err error) {
		select {
		case lost <- err:
		default:
		}
	}

	client := paho.NewClient(paho.ClientConfig{
		ClientID:          s.ClientID,
		Conn:              conn,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){s.onPublish(em)},
		OnClientError: func(err error) {
			signal(fmt.Errorf("mqtt client: %w", err))
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			if d != nil && d.ReasonCode != 0 {
				signal(fmt.Errorf("mqtt server disconnect: reason %d", d.ReasonCode))
				return
			}
			signal(nil)
		},
	})

	ack, err := client.Connect(ctx, &paho.Connect{
		ClientID:   s.ClientID,
		KeepAlive:  s.KeepAlive,
		CleanStart: true,
	})
	if err != nil {
		conn.Close()
		em.close(fmt.Errorf("mqtt connect: %w", err))
		return
	}
	if ack.ReasonCode != 0 {
		conn.Close()
		em.close(fmt.Errorf("mqtt connect refused: reason %d", ack.ReasonCode))
		return
	}

	if _, err := client.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: s.Topic, QoS: s.QoS}},
	}); err != nil {
		_ = client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		em.close(fmt.Errorf("mqtt subscribe %s: %w", s.Topic, err))
		return
	}
	s.Logger.Info("mqtt subscribed", zap.String("broker", s.Broker), zap.String("topic", s.Topic))

	select {
	case <-ctx.Done():
		_ = client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		em.close(nil)
	case err := <-lost:
		conn.Close()
		em.close(err)
	}
}
