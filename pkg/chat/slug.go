// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package chat

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// slugAdjectives and slugNouns are combined into MnemonicSlug ids. Small,
// fixed word lists keep ids short and pronounceable; the generator does not
// check whether an id is already in use.
var slugAdjectives = []string{
	"amber", "brave", "calm", "dusty", "eager", "fuzzy", "gentle", "hollow",
	"icy", "jolly", "keen", "lively", "misty", "noble", "olive", "plucky",
	"quiet", "rapid", "sunny", "tidy", "umber", "vivid", "witty", "young",
}

var slugNouns = []string{
	"castle", "river", "tiger", "meadow", "falcon", "harbor", "cinder",
	"lantern", "orchid", "canyon", "ember", "willow", "granite", "otter",
	"prairie", "quartz", "ridge", "summit", "thistle", "valley", "wren",
	"zephyr", "boulder", "cypress",
}

// NewSessionID generates a random adjective-noun MnemonicSlug id, e.g.
// "amber-castle".
func NewSessionID() (string, error) {
	adj, err := randomWord(slugAdjectives)
	if err != nil {
		return "", fmt.Errorf("chat: generate session id: %w", err)
	}
	noun, err := randomWord(slugNouns)
	if err != nil {
		return "", fmt.Errorf("chat: generate session id: %w", err)
	}
	return adj + "-" + noun, nil
}

func randomWord(words []string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		return "", err
	}
	return words[n.Int64()], nil
}
