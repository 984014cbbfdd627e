package pipeline

import "sort"

// streamDescriptorLess is the total order used for audio/video
// assembly: by input, then stream selector, then trick-play factor.
// The MPD notifier requires the main track (factor 0) to be announced
// first; trick-play renditions follow in descending factor.
func streamDescriptorLess(a, b *StreamDescriptor) bool {
	if a.Input != b.Input {
		return a.Input < b.Input
	}
	if a.StreamSelector != b.StreamSelector {
		return a.StreamSelector < b.StreamSelector
	}
	if a.TrickPlayFactor == 0 || b.TrickPlayFactor == 0 {
		return a.TrickPlayFactor == 0 && b.TrickPlayFactor != 0
	}
	return a.TrickPlayFactor > b.TrickPlayFactor
}

// sortStreamDescriptors sorts descriptors for deterministic shared-
// source assembly.
func sortStreamDescriptors(descriptors []*StreamDescriptor) {
	sort.SliceStable(descriptors, func(i, j int) bool {
		return streamDescriptorLess(descriptors[i], descriptors[j])
	})
}
