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
package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryable_WrapsAndUnwraps(t *testing.T) {
	base := errors.New("timeout")
	wrapped := Retryable(base)

	assert.True(t, IsRetryable(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "timeout", wrapped.Error())
}

func TestRetryable_NilStaysNil(t *testing.T) {
	assert.NoError(t, Retryable(nil))
}

func TestIsRetryable_FalseForUnwrappedError(t *testing.T) {
	assert.False(t, IsRetryable(errors.New("bad request")))
}

func TestIsRetryable_TrueWhenWrappedFurther(t *testing.T) {
	wrapped := fmt.Errorf("vendor call: %w", Retryable(errors.New("503")))
	assert.True(t, IsRetryable(wrapped))
}
