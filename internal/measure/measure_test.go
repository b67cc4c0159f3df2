/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package measure

import "testing"

func TestDefaultMeasurerExtents(t *testing.T) {
	m := Default()
	ext := m.TextExtents("hello")
	if ext.Width <= 0 || ext.Height <= 0 {
		t.Fatalf("extents must be positive: %+v", ext)
	}
	wider := m.TextExtents("hello world, considerably longer")
	if wider.Width <= ext.Width {
		t.Fatalf("longer text must measure wider: %g vs %g", wider.Width, ext.Width)
	}
}

func TestEmptyStringHasZeroWidth(t *testing.T) {
	m := Default()
	if w := m.TextExtents("").Width; w != 0 {
		t.Fatalf("empty string width = %g, want 0", w)
	}
}

func TestLoadOpenTypeMissingFile(t *testing.T) {
	if _, err := LoadOpenType("/nonexistent/font.otf", 12); err == nil {
		t.Fatalf("missing font file must error")
	}
}
