package synthesis

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeName brings an extracted entity name to NFC without surrounding space
func normalizeName(name string) string {
	return strings.TrimSpace(norm.NFC.String(name))
}

// usableEntities drops entities whose name is blank after normalization
func usableEntities(in []EntityOutput) (kept []EntityOutput, dropped int) {
	kept = make([]EntityOutput, 0, len(in))
	for _, e := range in {
		e.Name = normalizeName(e.Name)
		if e.Name == "" {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	return kept, dropped
}
