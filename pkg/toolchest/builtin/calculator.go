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

// Package builtin holds toolsets available to every agent without any
// external tool-server configuration.
package builtin

import (
	"context"
	"fmt"

	"github.com/teradata-labs/agentrt/pkg/toolchest"
)

// Calculator is a toolset exposing a single "evaluate" function over basic
// arithmetic expressions (+ - * / parentheses).
type Calculator struct{}

// NewCalculator builds the calculator toolset.
func NewCalculator() *toolchest.StaticToolset {
	return toolchest.NewStaticToolset("calculator", &evaluateTool{})
}

type evaluateTool struct{}

func (t *evaluateTool) Name() string        { return "evaluate" }
func (t *evaluateTool) Description() string { return "Evaluate an arithmetic expression and return the numeric result." }

func (t *evaluateTool) InputSchema() *toolchest.JSONSchema {
	return toolchest.NewObjectSchema(
		"Arithmetic expression parameters",
		map[string]*toolchest.JSONSchema{
			"expression": toolchest.NewStringSchema("An arithmetic expression, e.g. \"2+2\""),
		},
		[]string{"expression"},
	)
}

func (t *evaluateTool) Execute(ctx context.Context, params map[string]interface{}) (*toolchest.Result, error) {
	expr, ok := params["expression"].(string)
	if !ok || expr == "" {
		return &toolchest.Result{Success: false, Error: &toolchest.Error{Code: "bad_request", Message: "expression must be a non-empty string"}}, nil
	}
	value, err := evaluate(expr)
	if err != nil {
		return &toolchest.Result{Success: false, Error: &toolchest.Error{Code: "eval_error", Message: err.Error()}}, nil
	}
	return &toolchest.Result{Success: true, Data: value}, nil
}

// evaluate parses and computes a basic arithmetic expression using a
// small recursive-descent parser: expr := term (('+'|'-') term)*,
// term := factor (('*'|'/') factor)*, factor := number | '(' expr ')' | '-' factor.
func evaluate(expr string) (float64, error) {
	p := &exprParser{input: expr}
	p.skipSpace()
	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	return value, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) parseExpr() (float64, error) {
	value, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			value += rhs
		case '-':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			value -= rhs
		default:
			return value, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	value, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			value *= rhs
		case '/':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			value /= rhs
		default:
			return value, nil
		}
	}
}

func (p *exprParser) parseFactor() (float64, error) {
	p.skipSpace()
	switch p.peek() {
	case '-':
		p.pos++
		value, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		return -value, nil
	case '(':
		p.pos++
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return 0, fmt.Errorf("expected ')' at position %d", p.pos)
		}
		p.pos++
		return value, nil
	}
	start := p.pos
	for p.pos < len(p.input) && (isDigit(p.input[p.pos]) || p.input[p.pos] == '.') {
		p.pos++
	}
	if p.pos == start {
		return 0, fmt.Errorf("expected number at position %d", p.pos)
	}
	var value float64
	if _, err := fmt.Sscanf(p.input[start:p.pos], "%g", &value); err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", p.input[start:p.pos], err)
	}
	return value, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
