package growth

import (
	"fmt"
	"strings"
)

// reasonSummary renders the human-readable explanation stored on each plan.
func reasonSummary(trend Trend, sig Signals, res Resistance, posts, replies CadenceRecommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Trend: %s (24h avg reward %.2f vs 72h avg %.2f). ", trend.Label, trend.AvgReward24h, trend.AvgReward72h)
	fmt.Fprintf(&b, "Followers 24h: %+d. ", sig.FollowerDelta24h)
	fmt.Fprintf(&b, "Avg impressions: %.1f, avg bookmarks: %.1f. ", sig.AvgImpressions24h, sig.AvgBookmarks24h)
	if res.ShouldBackoff {
		fmt.Fprintf(&b, "Backoff applied: %s. ", res.Reason)
	} else {
		b.WriteString("Backoff: not applied. ")
	}
	fmt.Fprintf(&b, "%s. %s.", posts.Explain(), replies.Explain())
	return b.String()
}
