package display

// SelectMessage picks the message that controls a stop's sign for one
// cycle. Blocking messages outrank non-blocking ones; among messages of
// equal rank the first in active wins, so the upstream ordering decides
// ties deterministically.
func SelectMessage(stopID string, active []GeneralMessage) (GeneralMessage, bool) {
	var (
		selected GeneralMessage
		found    bool
	)
	for _, m := range active {
		if m.StopID != stopID {
			continue
		}
		if !found {
			selected, found = m, true
			continue
		}
		if m.Blocking && !selected.Blocking {
			selected = m
		}
	}
	return selected, found
}
