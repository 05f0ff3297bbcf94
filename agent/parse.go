package agent

import (
	"strings"

	"github.com/prpilot/prpilot/model"
)

// noReviewSummary is the warning summary used when the model response
// carries no parsable review block.
const noReviewSummary = "The model response did not contain a review block; no analysis is available."

// ParseReview extracts a structured review from the model's free-text
// response. The tagged format is treated as an untrusted wire format:
// missing or malformed elements default to empty, and parsing never
// fails.
func ParseReview(response string) model.Review {
	span, ok := extractTag(response, "review")
	if !ok {
		return model.Review{Summary: noReviewSummary}
	}

	review := model.Review{}
	if summary, ok := extractTag(span, "summary"); ok {
		review.Summary = strings.TrimSpace(summary)
	}

	if analyses, ok := extractTag(span, "fileAnalyses"); ok {
		for _, file := range extractAll(analyses, "file") {
			path, _ := extractTag(file, "path")
			analysis, _ := extractTag(file, "analysis")
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			review.FileAnalyses = append(review.FileAnalyses, model.FileAnalysis{
				Path:     path,
				Analysis: strings.TrimSpace(analysis),
			})
		}
	}

	if suggestions, ok := extractTag(span, "overallSuggestions"); ok {
		for _, s := range extractAll(suggestions, "suggestion") {
			if s = strings.TrimSpace(s); s != "" {
				review.Suggestions = append(review.Suggestions, s)
			}
		}
	}

	return review
}

// ParseTestProposals extracts test proposals from the model's free-text
// response. Proposals missing a filename or content are dropped; unknown
// test types and actions fall back to their defaults. A response without
// the outer tagged block yields an empty list, never an error.
func ParseTestProposals(response string) []model.TestProposal {
	span, ok := extractTag(response, "tests")
	if !ok {
		return nil
	}
	block, ok := extractTag(span, "testProposals")
	if !ok {
		return nil
	}

	var proposals []model.TestProposal
	for _, raw := range extractAll(block, "proposal") {
		filename, _ := extractTag(raw, "filename")
		content, _ := extractTag(raw, "testContent")
		filename = strings.TrimSpace(filename)
		if filename == "" || strings.TrimSpace(content) == "" {
			continue
		}

		p := model.TestProposal{
			Filename:    filename,
			TestType:    model.TestTypeUnit,
			TestContent: content,
			Action:      model.ActionCreate,
		}

		if testType, ok := extractTag(raw, "testType"); ok {
			if strings.TrimSpace(testType) == string(model.TestTypeE2E) {
				p.TestType = model.TestTypeE2E
			}
		}

		if actions, ok := extractTag(raw, "actions"); ok {
			if action, ok := extractTag(actions, "action"); ok {
				switch model.ProposalAction(strings.TrimSpace(action)) {
				case model.ActionUpdate:
					p.Action = model.ActionUpdate
				case model.ActionRename:
					p.Action = model.ActionRename
				}
			}
			if old, ok := extractTag(actions, "oldFilename"); ok {
				p.OldFilename = strings.TrimSpace(old)
			}
		}

		// A rename must carry a distinct old path; without one it is just
		// a create.
		if p.Action == model.ActionRename && (p.OldFilename == "" || p.OldFilename == p.Filename) {
			p.Action = model.ActionCreate
			p.OldFilename = ""
		}

		proposals = append(proposals, p)
	}
	return proposals
}

// extractTag returns the text between the first <tag> and the following
// </tag>. Lenient tag scanning is used instead of an XML parser because
// model output is routinely not well-formed (unescaped characters, code
// in element bodies) and a missing tag must not be an error.
func extractTag(s, tag string) (string, bool) {
	open := "<" + tag + ">"
	closing := "</" + tag + ">"

	start := strings.Index(s, open)
	if start < 0 {
		return "", false
	}
	rest := s[start+len(open):]
	end := strings.Index(rest, closing)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// extractAll returns the text of every non-overlapping <tag>...</tag>
// span, in order.
func extractAll(s, tag string) []string {
	open := "<" + tag + ">"
	closing := "</" + tag + ">"

	var out []string
	for {
		start := strings.Index(s, open)
		if start < 0 {
			return out
		}
		s = s[start+len(open):]
		end := strings.Index(s, closing)
		if end < 0 {
			return out
		}
		out = append(out, s[:end])
		s = s[end+len(closing):]
	}
}
