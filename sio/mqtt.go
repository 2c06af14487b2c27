/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTT is a Couplings that reads command lines from a broker topic
// and publishes Responses as JSON to another.
type MQTT struct {
	Client mqtt.Client

	CommandTopic string
	ResultTopic  string
	QoS          byte

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint

	// InTimeout bounds how long an incoming message waits to be
	// queued.
	InTimeout time.Duration

	in     chan *Request
	out    chan *Response
	done   chan bool
	wg     sync.WaitGroup
	logger *zap.Logger
}

// MQTTConf gives the broker connection parameters.
type MQTTConf struct {
	Broker       string
	ClientId     string
	Username     string
	Password     string
	CommandTopic string
	ResultTopic  string
	QoS          byte
	KeepAlive    time.Duration
}

// NewMQTT makes an MQTT coupling with a Paho client for the given
// broker.
func NewMQTT(conf MQTTConf, logger *zap.Logger) *MQTT {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &MQTT{
		CommandTopic: conf.CommandTopic,
		ResultTopic:  conf.ResultTopic,
		QoS:          conf.QoS,
		Quiesce:      100,
		InTimeout:    5 * time.Second,
		in:           make(chan *Request),
		out:          make(chan *Response),
		done:         make(chan bool),
		logger:       logger.Named("mqtt"),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(conf.Broker)
	opts.SetClientID(conf.ClientId)
	if 0 < conf.KeepAlive {
		opts.SetKeepAlive(conf.KeepAlive)
	}
	opts.SetPingTimeout(10 * time.Second)
	opts.Username = conf.Username
	opts.Password = conf.Password
	opts.AutoReconnect = true
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		m.logger.Warn("connection lost", zap.Error(err))
	}
	m.Client = mqtt.NewClient(opts)

	return m
}

// consume queues the payload as a command line.
func (m *MQTT) consume(ctx context.Context, topic string, payload []byte) {
	line := strings.TrimSpace(string(payload))
	if line == "" {
		return
	}

	to := time.NewTimer(m.InTimeout)
	defer to.Stop()

	select {
	case <-ctx.Done():
		m.logger.Warn("not queuing due to ctx.Done()", zap.String("line", line))
	case m.in <- &Request{From: topic, Line: line}:
		m.logger.Debug("queued", zap.String("topic", topic), zap.String("line", line))
	case <-to.C:
		m.logger.Warn("not queuing due to stall", zap.String("topic", topic), zap.String("line", line))
	}
}

// Start connects to the broker and subscribes to the command topic.
func (m *MQTT) Start(ctx context.Context) error {
	m.logger.Info("connecting to broker")
	if token := m.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	handler := func(client mqtt.Client, msg mqtt.Message) {
		m.consume(ctx, msg.Topic(), msg.Payload())
	}
	if t := m.Client.Subscribe(m.CommandTopic, m.QoS, handler); t.Wait() && t.Error() != nil {
		return t.Error()
	}
	m.logger.Info("subscribed", zap.String("topic", m.CommandTopic), zap.Uint8("qos", m.QoS))
	return nil
}

// IO starts a loop to publish Responses.
func (m *MQTT) IO(ctx context.Context) (chan *Request, chan *Response, chan bool, error) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-m.out:
				if !ok || r == nil {
					return
				}
				m.publish(r)
			}
		}
	}()
	return m.in, m.out, m.done, nil
}

func (m *MQTT) publish(r *Response) {
	js, err := json.Marshal(r)
	if err != nil {
		m.logger.Error("marshal", zap.Error(err))
		return
	}
	token := m.Client.Publish(m.ResultTopic, m.QoS, false, js)
	token.Wait()
	if err := token.Error(); err != nil {
		m.logger.Error("publish", zap.Error(err))
		return
	}
	m.logger.Debug("published", zap.String("topic", m.ResultTopic))
}

// Stop terminates the MQTT session.
func (m *MQTT) Stop(ctx context.Context) error {
	m.wg.Wait()
	if m.Client.IsConnected() {
		m.Client.Unsubscribe(m.CommandTopic).Wait()
		m.Client.Disconnect(m.Quiesce)
	}
	return nil
}
