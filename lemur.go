package assemblyai

import (
	"context"
	"net/http"
)

// LemurQuestion asks one or more free-form questions about a set of
// completed transcripts.
func (c *Client) LemurQuestion(ctx context.Context, params LemurQuestionParams) (LemurQuestionResponse, error) {
	var result LemurQuestionResponse
	err := c.doJSON(ctx, http.MethodPost, "/lemur/v3/generate/question-answer", params, &result, "lemur_question")
	return result, err
}

// LemurSummarize produces a summary of a set of completed transcripts.
func (c *Client) LemurSummarize(ctx context.Context, params LemurSummaryParams) (LemurResponse, error) {
	var result LemurResponse
	err := c.doJSON(ctx, http.MethodPost, "/lemur/v3/generate/summary", params, &result, "lemur_summarize")
	return result, err
}

// LemurActionItems extracts action items from a set of completed
// transcripts.
func (c *Client) LemurActionItems(ctx context.Context, params LemurActionItemsParams) (LemurResponse, error) {
	var result LemurResponse
	err := c.doJSON(ctx, http.MethodPost, "/lemur/v3/generate/action-items", params, &result, "lemur_action_items")
	return result, err
}

// LemurTask runs an arbitrary prompt against a set of completed
// transcripts.
func (c *Client) LemurTask(ctx context.Context, params LemurTaskParams) (LemurResponse, error) {
	var result LemurResponse
	err := c.doJSON(ctx, http.MethodPost, "/lemur/v3/generate/task", params, &result, "lemur_task")
	return result, err
}

// LemurPurgeRequestData deletes the stored data for a previous LeMUR
// request.
func (c *Client) LemurPurgeRequestData(ctx context.Context, requestID string) (LemurPurgeResponse, error) {
	var result LemurPurgeResponse
	err := c.doJSON(ctx, http.MethodDelete, "/lemur/v3/"+requestID, nil, &result, "lemur_purge")
	return result, err
}
