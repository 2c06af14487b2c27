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

	"github.com/GRAYgoose124/wikicrawler/arbiter"
)

// Request is a command line from some source.
type Request struct {
	// From identifies the origin (a connection id, a topic, a
	// schedule).  Responses are addressed to it.
	From string `json:"from,omitempty"`

	Line string `json:"line"`

	// Interactive asks for display on the Prompt's Out.
	Interactive bool `json:"-"`
}

// Response is what a Request produced.
type Response struct {
	To        string          `json:"to,omitempty"`
	Line      string          `json:"line"`
	Result    *arbiter.Result `json:"result"`
	Recording bool            `json:"recording"`
}

// Couplings provide channels for command input and result output.
//
// For example, an implementation could couple a Prompt to an MQTT
// broker or to WebSocket clients.
type Couplings interface {
	// Start initializes the Couplings.
	Start(context.Context) error

	// IO returns the input and output channels and a channel that
	// is closed when input is exhausted.
	IO(context.Context) (chan *Request, chan *Response, chan bool, error)

	// Stop shuts down the Couplings.
	Stop(context.Context) error
}
