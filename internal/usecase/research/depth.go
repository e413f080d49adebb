package research

import "github.com/Av0cat0/tavily-rag-pipeline/internal/domain"

// depthAuto lets retrieval pick the tier per sub-query instead of forcing one.
const depthAuto domain.SearchDepth = ""

// initialDepth picks the search tier for one sub-query before any escalation.
// Long sub-queries and wide fan-outs start at advanced depth; everything else
// starts cheap and escalates only when basic retrieval finds nothing relevant.
func initialDepth(sub domain.SubQuery, fanout, wordThreshold, fanoutThreshold int) domain.SearchDepth {
	if sub.Words() > wordThreshold || fanout > fanoutThreshold {
		return domain.DepthAdvanced
	}
	return domain.DepthBasic
}
