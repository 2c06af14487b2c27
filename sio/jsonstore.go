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
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/GRAYgoose124/wikicrawler/core"
)

// JSONStore is a primitive facility to store a Session as JSON in
// three files.
//
// Not glamorous or efficient.
type JSONStore struct {
	// StateFilename holds the navigation State.
	StateFilename string

	// PointerFilename holds the Pointer.
	PointerFilename string

	// FunctionsFilename holds the macros.
	FunctionsFilename string

	sync.Mutex
}

// NewJSONStore makes a JSONStore with the conventional filenames in
// the given directory.
func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{
		StateFilename:     filepath.Join(dir, "crawl_state.json"),
		PointerFilename:   filepath.Join(dir, "pointer.json"),
		FunctionsFilename: filepath.Join(dir, "functions_cache.json"),
	}
}

// readJSON decodes the file into x.  A missing file leaves x alone.
func readJSON(filename string, x interface{}) error {
	js, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err = json.Unmarshal(js, x); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}

func writeJSON(filename string, x interface{}) error {
	js, err := json.MarshalIndent(x, "", "  ")
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	return os.WriteFile(filename, js, 0644)
}

// Load reads the three files.  Missing files give empty forms.
func (s *JSONStore) Load(ctx context.Context) (*core.Session, error) {
	s.Lock()
	defer s.Unlock()

	sess := &core.Session{}
	if err := readJSON(s.StateFilename, &sess.State); err != nil {
		return nil, err
	}
	if err := readJSON(s.PointerFilename, &sess.Pointer); err != nil {
		return nil, err
	}
	if err := readJSON(s.FunctionsFilename, &sess.Functions); err != nil {
		return nil, err
	}
	return sess.Normalize(), nil
}

// Save overwrites each file wholesale.
func (s *JSONStore) Save(ctx context.Context, sess *core.Session) error {
	s.Lock()
	defer s.Unlock()

	if err := writeJSON(s.StateFilename, sess.State); err != nil {
		return err
	}
	if err := writeJSON(s.PointerFilename, sess.Pointer); err != nil {
		return err
	}
	return writeJSON(s.FunctionsFilename, sess.Functions)
}
