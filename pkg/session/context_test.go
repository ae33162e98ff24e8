// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithSessionIDRoundTrip(t *testing.T) {
	ctx := WithSessionID(context.Background(), "tiger-castle")
	assert.Equal(t, "tiger-castle", SessionIDFromContext(ctx))
}

func TestWithSessionIDEmptyIsNoop(t *testing.T) {
	ctx := WithSessionID(context.Background(), "")
	assert.Equal(t, "", SessionIDFromContext(ctx))
}

func TestSessionIDFromContextMissingReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", SessionIDFromContext(context.Background()))
}
