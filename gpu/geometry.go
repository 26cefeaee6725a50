package gpu

import "fmt"

// DefaultMaxWorkgroupsPerDimension is the WebGPU baseline limit.
const DefaultMaxWorkgroupsPerDimension = 65535

// Geometry maps logical elements onto execution groups.
type Geometry struct {
	Groups    [3]uint32
	GroupSize uint32
	Count     int
}

// Invocations is the total number of kernel invocations the geometry launches.
// It may exceed Count when groups are folded into a second dimension.
func (g Geometry) Invocations() int {
	return int(g.Groups[0]) * int(g.Groups[1]) * int(g.Groups[2]) * int(g.GroupSize)
}

// PlanGeometry assigns one invocation per element. Groups run along X until
// maxPerDim is reached, then fold into Y; kernels recover the flat index as
// gid.x + gid.y*groups.x*groupSize and bounds-check it.
func PlanGeometry(count int, groupSize, maxPerDim uint32) (Geometry, error) {
	if count < 0 {
		return Geometry{}, fmt.Errorf("%w: negative count %d", ErrGeometryTooLarge, count)
	}
	if groupSize == 0 {
		groupSize = 1
	}
	if maxPerDim == 0 {
		maxPerDim = DefaultMaxWorkgroupsPerDimension
	}
	g := Geometry{GroupSize: groupSize, Count: count}
	if count == 0 {
		return g, nil
	}

	groups := (uint64(count) + uint64(groupSize) - 1) / uint64(groupSize)
	if groups <= uint64(maxPerDim) {
		g.Groups = [3]uint32{uint32(groups), 1, 1}
		return g, nil
	}
	rows := (groups + uint64(maxPerDim) - 1) / uint64(maxPerDim)
	if rows > uint64(maxPerDim) {
		return Geometry{}, fmt.Errorf("%w: %d groups, limit %d per dimension", ErrGeometryTooLarge, groups, maxPerDim)
	}
	g.Groups = [3]uint32{maxPerDim, uint32(rows), 1}
	return g, nil
}
