package schema

import "strings"

// NormalizeSessionID trims a session id and rejects blank or padded input.
func NormalizeSessionID(id SessionID) (SessionID, error) {
	raw := string(id)
	if raw == "" || strings.TrimSpace(raw) != raw {
		return "", ErrInvalidSession
	}
	for _, r := range raw {
		if r < 0x21 || r > 0x7e {
			return "", ErrInvalidSession
		}
	}
	return id, nil
}

// NormalizeRecallDirection accepts previous/prev/up and next/down.
func NormalizeRecallDirection(value string) (RecallDirection, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "previous", "prev", "up":
		return RecallPrevious, nil
	case "next", "down":
		return RecallNext, nil
	default:
		return "", ErrInvalidRecall
	}
}

// NormalizeScanPolicy returns the canonical scan policy. Blank means restart.
func NormalizeScanPolicy(value string) (ScanPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "restart":
		return ScanPolicyRestart, nil
	case "ignore":
		return ScanPolicyIgnore, nil
	default:
		return "", ErrInvalidScanPolicy
	}
}
