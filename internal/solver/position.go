/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package solver

import "fmt"

// Position is a point made of two variables. Assigning a position assigns
// both components independently.
type Position struct {
	X, Y *Variable
}

// NewPosition creates a position with NORMAL strength.
func NewPosition(x, y float64) *Position { return NewPositionWithStrength(x, y, Normal) }

// NewPositionWithStrength creates a position whose components share strength.
func NewPositionWithStrength(x, y float64, strength Strength) *Position {
	return &Position{
		X: NewVariableWithStrength(x, strength),
		Y: NewVariableWithStrength(y, strength),
	}
}

// Pos returns the current component values.
func (p *Position) Pos() (x, y float64) { return p.X.Value(), p.Y.Value() }

// SetPos assigns both components.
func (p *Position) SetPos(x, y float64) {
	p.X.SetValue(x)
	p.Y.SetValue(y)
}

// Strength returns the components' strength.
func (p *Position) Strength() Strength { return p.X.Strength() }

func (p *Position) String() string {
	return fmt.Sprintf("<Position (%g, %g)>", p.X.Value(), p.Y.Value())
}
