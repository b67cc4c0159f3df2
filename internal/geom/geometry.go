/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package geom

import "math"

// DistancePointPoint returns the Euclidean distance between two points.
func DistancePointPoint(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Hypot(dx, dy)
}

// DistanceLinePoint returns the distance of point (px, py) from the segment
// (x1, y1)-(x2, y2) and the closest point on the segment. The foot of the
// perpendicular is clamped parametrically to [0, 1].
func DistanceLinePoint(x1, y1, x2, y2, px, py float64) (dist, fx, fy float64) {
	dx := x2 - x1
	dy := y2 - y1

	lenSqr := dx*dx + dy*dy
	if lenSqr < 1e-8 {
		// Degenerate segment, both ends coincide.
		return DistancePointPoint(px, py, x1, y1), x1, y1
	}

	t := ((px-x1)*dx + (py-y1)*dy) / lenSqr
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	fx = x1 + t*dx
	fy = y1 + t*dy
	return DistancePointPoint(px, py, fx, fy), fx, fy
}

// DistanceRectanglePoint returns the distance of a point from a rectangle
// (x, y, w, h); 0 when the point lies inside.
func DistanceRectanglePoint(x, y, w, h, px, py float64) float64 {
	dx := math.Max(math.Max(x-px, 0), px-(x+w))
	dy := math.Max(math.Max(y-py, 0), py-(y+h))
	return math.Hypot(dx, dy)
}

// DistanceRectangleBorderPoint returns the distance of a point from the
// border of rectangle (x, y, w, h). Points inside measure their distance to
// the nearest edge.
func DistanceRectangleBorderPoint(x, y, w, h, px, py float64) float64 {
	if out := DistanceRectanglePoint(x, y, w, h, px, py); out > 0 {
		return out
	}
	// Inside: closest edge.
	return math.Min(
		math.Min(px-x, x+w-px),
		math.Min(py-y, y+h-py),
	)
}
