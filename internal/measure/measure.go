/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package measure provides the text measurement handle carried by the
// canvas update context. Items that size themselves to a label query it
// during their pre-update hook; the engine itself never draws.
package measure

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// Extents is the measured size of a piece of text.
type Extents struct {
	Width  float64
	Height float64
}

// Measurer computes text extents.
type Measurer interface {
	TextExtents(s string) Extents
}

// FaceMeasurer measures with a font.Face.
type FaceMeasurer struct {
	face font.Face
}

// NewFaceMeasurer wraps an existing face.
func NewFaceMeasurer(face font.Face) *FaceMeasurer { return &FaceMeasurer{face: face} }

// Default returns a measurer backed by the built-in bitmap face. It needs no
// font files and is used when the host supplies nothing better.
func Default() Measurer { return &FaceMeasurer{face: basicfont.Face7x13} }

// LoadOpenType reads an OpenType font file and returns a measurer for the
// given point size.
func LoadOpenType(path string, size float64) (*FaceMeasurer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("measure: read font: %w", err)
	}
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("measure: parse font: %w", err)
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{Size: size, DPI: 72})
	if err != nil {
		return nil, fmt.Errorf("measure: create face: %w", err)
	}
	return &FaceMeasurer{face: face}, nil
}

// TextExtents returns the advance width and line height of s.
func (m *FaceMeasurer) TextExtents(s string) Extents {
	adv := font.MeasureString(m.face, s)
	met := m.face.Metrics()
	return Extents{
		Width:  float64(adv) / 64,
		Height: float64(met.Ascent+met.Descent) / 64,
	}
}
