package scraper

import "testing"

func TestMergeConsentSelectorsPriorityOrder(t *testing.T) {
	merged := MergeConsentSelectors([]string{"#provider-cookie-btn"})

	acceptIdx, rejectIdx, extraIdx := -1, -1, -1
	for i, sel := range merged {
		switch sel {
		case "#onetrust-accept-btn-handler":
			acceptIdx = i
		case "#onetrust-reject-all-handler":
			rejectIdx = i
		case "#provider-cookie-btn":
			extraIdx = i
		}
	}

	if acceptIdx == -1 || rejectIdx == -1 || extraIdx == -1 {
		t.Fatalf("missing expected selectors in merged list: %v", merged)
	}
	if acceptIdx > rejectIdx {
		t.Error("accept selector should rank ahead of reject selector")
	}
	if extraIdx < rejectIdx {
		t.Error("config selectors should rank behind built-in selectors")
	}
}

func TestMergeConsentSelectorsDedup(t *testing.T) {
	merged := MergeConsentSelectors([]string{
		"#onetrust-accept-btn-handler", // duplicate of a built-in
		"",                             // empties dropped
		"#custom",
		"#custom",
	})

	counts := make(map[string]int)
	for _, sel := range merged {
		if sel == "" {
			t.Error("merged list contains empty selector")
		}
		counts[sel]++
	}
	if counts["#onetrust-accept-btn-handler"] != 1 {
		t.Errorf("duplicate built-in selector kept %d times", counts["#onetrust-accept-btn-handler"])
	}
	if counts["#custom"] != 1 {
		t.Errorf("duplicate config selector kept %d times", counts["#custom"])
	}
}
