package assemblyai

// TranscriptStatus is the processing state of a transcript job.
type TranscriptStatus string

const (
	StatusQueued     TranscriptStatus = "queued"
	StatusProcessing TranscriptStatus = "processing"
	StatusCompleted  TranscriptStatus = "completed"
	StatusError      TranscriptStatus = "error"
)

// Word is a single recognized word with millisecond timing.
type Word struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker,omitempty"`
	Channel    string  `json:"channel,omitempty"`
}

// Utterance is a continuous span of speech attributed to one speaker.
type Utterance struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker,omitempty"`
	Channel    string  `json:"channel,omitempty"`
	Words      []Word  `json:"words"`
}

// Chapter is an automatically detected chapter of the audio.
type Chapter struct {
	Summary  string `json:"summary"`
	Headline string `json:"headline"`
	Gist     string `json:"gist"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

// SentimentType classifies the sentiment of a span of speech.
type SentimentType string

const (
	SentimentPositive SentimentType = "POSITIVE"
	SentimentNeutral  SentimentType = "NEUTRAL"
	SentimentNegative SentimentType = "NEGATIVE"
)

// Sentiment is the detected sentiment for one sentence.
type Sentiment struct {
	Text       string        `json:"text"`
	Start      int           `json:"start"`
	End        int           `json:"end"`
	Confidence float64       `json:"confidence"`
	Sentiment  SentimentType `json:"sentiment"`
	Speaker    string        `json:"speaker,omitempty"`
}

// Entity is a detected named entity.
type Entity struct {
	EntityType string `json:"entity_type"`
	Text       string `json:"text"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// Timestamp is a start/end pair in milliseconds.
type Timestamp struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// AutoHighlightResult is one key phrase detected in the transcript.
type AutoHighlightResult struct {
	Count      int         `json:"count"`
	Rank       float64     `json:"rank"`
	Text       string      `json:"text"`
	Timestamps []Timestamp `json:"timestamps"`
}

// AutoHighlightsResult is the auto-highlights analysis of a transcript.
type AutoHighlightsResult struct {
	Status  string                `json:"status"`
	Results []AutoHighlightResult `json:"results"`
}

// ContentSafetyLabel is one moderation label with its confidence.
type ContentSafetyLabel struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Severity   float64 `json:"severity"`
}

// ContentSafetyResult is a flagged span of the transcript.
type ContentSafetyResult struct {
	Text      string               `json:"text"`
	Labels    []ContentSafetyLabel `json:"labels"`
	Timestamp Timestamp            `json:"timestamp"`
}

// ContentSafetyResponse is the content moderation analysis of a transcript.
type ContentSafetyResponse struct {
	Status  string                `json:"status"`
	Results []ContentSafetyResult `json:"results"`
}

// IABLabelResult is one topic label with its relevance.
type IABLabelResult struct {
	Relevance float64 `json:"relevance"`
	Label     string  `json:"label"`
}

// IABResult is the topic detection result for one span of the transcript.
type IABResult struct {
	Text      string           `json:"text"`
	Labels    []IABLabelResult `json:"labels"`
	Timestamp Timestamp        `json:"timestamp"`
}

// IABResponse is the topic detection analysis of a transcript.
type IABResponse struct {
	Status  string             `json:"status"`
	Results []IABResult        `json:"results"`
	Summary map[string]float64 `json:"summary"`
}

// Sentence is one sentence of the transcript with word-level detail.
type Sentence struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words"`
}

// SentencesResponse is the sentence-segmented view of a transcript.
type SentencesResponse struct {
	Sentences     []Sentence `json:"sentences"`
	Confidence    float64    `json:"confidence"`
	AudioDuration float64    `json:"audio_duration"`
}

// Paragraph is one paragraph of the transcript with word-level detail.
type Paragraph struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words"`
}

// ParagraphsResponse is the paragraph-segmented view of a transcript.
type ParagraphsResponse struct {
	Paragraphs    []Paragraph `json:"paragraphs"`
	Confidence    float64     `json:"confidence"`
	AudioDuration float64     `json:"audio_duration"`
}

// WordSearchMatch is one matched word with its locations.
type WordSearchMatch struct {
	Text       string   `json:"text"`
	Count      int      `json:"count"`
	Timestamps [][2]int `json:"timestamps"`
	Indexes    []int    `json:"indexes"`
}

// WordSearchResponse is the result of searching a transcript for words.
type WordSearchResponse struct {
	TotalCount int               `json:"total_count"`
	Matches    []WordSearchMatch `json:"matches"`
}

// RedactedAudioResponse points at the PII-redacted audio file.
type RedactedAudioResponse struct {
	RedactedAudioURL string `json:"redacted_audio_url"`
	Status           string `json:"status"`
}

// TranscriptParams are the options for submitting a transcription job.
// AudioURL is required; optional features are pointers so that unset fields
// are omitted from the request.
type TranscriptParams struct {
	AudioURL string `json:"audio_url"`

	LanguageCode      *string  `json:"language_code,omitempty"`
	LanguageDetection *bool    `json:"language_detection,omitempty"`
	Punctuate         *bool    `json:"punctuate,omitempty"`
	FormatText        *bool    `json:"format_text,omitempty"`
	SpeakerLabels     *bool    `json:"speaker_labels,omitempty"`
	SpeakersExpected  *int     `json:"speakers_expected,omitempty"`
	Multichannel      *bool    `json:"multichannel,omitempty"`
	SpeechModel       *string  `json:"speech_model,omitempty"`
	SpeechThreshold   *float64 `json:"speech_threshold,omitempty"`

	WordBoost  []string `json:"word_boost,omitempty"`
	BoostParam *string  `json:"boost_param,omitempty"` // low, default, high

	AudioStartFrom *int `json:"audio_start_from,omitempty"` // milliseconds
	AudioEndAt     *int `json:"audio_end_at,omitempty"`     // milliseconds

	Summarization *bool   `json:"summarization,omitempty"`
	SummaryModel  *string `json:"summary_model,omitempty"`
	SummaryType   *string `json:"summary_type,omitempty"`

	AutoChapters      *bool `json:"auto_chapters,omitempty"`
	AutoHighlights    *bool `json:"auto_highlights,omitempty"`
	SentimentAnalysis *bool `json:"sentiment_analysis,omitempty"`
	EntityDetection   *bool `json:"entity_detection,omitempty"`
	IABCategories     *bool `json:"iab_categories,omitempty"`
	ContentSafety     *bool `json:"content_safety,omitempty"`

	RedactPII         *bool    `json:"redact_pii,omitempty"`
	RedactPIIAudio    *bool    `json:"redact_pii_audio,omitempty"`
	RedactPIIPolicies []string `json:"redact_pii_policies,omitempty"`
	RedactPIISub      *string  `json:"redact_pii_sub,omitempty"`

	WebhookURL        *string `json:"webhook_url,omitempty"`
	WebhookAuthHeader *string `json:"webhook_auth_header_name,omitempty"`
	WebhookAuthValue  *string `json:"webhook_auth_header_value,omitempty"`
}

// Transcript is the state and results of a transcription job. Analysis
// fields are populated only when the corresponding feature was requested
// and the transcript has completed.
type Transcript struct {
	ID       string           `json:"id"`
	Status   TranscriptStatus `json:"status"`
	AudioURL string           `json:"audio_url"`
	Error    string           `json:"error,omitempty"`

	Text          string      `json:"text"`
	Words         []Word      `json:"words"`
	Utterances    []Utterance `json:"utterances"`
	Confidence    float64     `json:"confidence"`
	AudioDuration float64     `json:"audio_duration"`
	LanguageCode  string      `json:"language_code"`

	Summary                  string                 `json:"summary,omitempty"`
	Chapters                 []Chapter              `json:"chapters,omitempty"`
	SentimentAnalysisResults []Sentiment            `json:"sentiment_analysis_results,omitempty"`
	Entities                 []Entity               `json:"entities,omitempty"`
	AutoHighlightsResult     *AutoHighlightsResult  `json:"auto_highlights_result,omitempty"`
	ContentSafetyLabels      *ContentSafetyResponse `json:"content_safety_labels,omitempty"`
	IABCategoriesResult      *IABResponse           `json:"iab_categories_result,omitempty"`

	WebhookStatusCode int  `json:"webhook_status_code,omitempty"`
	WebhookAuth       bool `json:"webhook_auth,omitempty"`
}

// LemurModel selects the LLM used for a LeMUR request.
type LemurModel string

const (
	LemurModelDefault LemurModel = "default"
	LemurModelBasic   LemurModel = "basic"
)

// LemurBaseParams are the fields shared by every LeMUR request.
type LemurBaseParams struct {
	TranscriptIDs []string   `json:"transcript_ids,omitempty"`
	InputText     string     `json:"input_text,omitempty"`
	Context       any        `json:"context,omitempty"` // string or object
	FinalModel    LemurModel `json:"final_model,omitempty"`
	MaxOutputSize *int       `json:"max_output_size,omitempty"`
	Temperature   *float64   `json:"temperature,omitempty"`
}

// LemurQuestion is one question to ask about the source transcripts.
type LemurQuestion struct {
	Question      string   `json:"question"`
	Context       any      `json:"context,omitempty"`
	AnswerFormat  *string  `json:"answer_format,omitempty"`
	AnswerOptions []string `json:"answer_options,omitempty"`
}

// LemurQuestionParams is the request for the question-answer endpoint.
type LemurQuestionParams struct {
	LemurBaseParams
	Questions []LemurQuestion `json:"questions"`
}

// LemurQuestionAnswer is one answered question.
type LemurQuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// LemurQuestionResponse is the response from the question-answer endpoint.
type LemurQuestionResponse struct {
	RequestID string                `json:"request_id"`
	Response  []LemurQuestionAnswer `json:"response"`
}

// LemurSummaryParams is the request for the summary endpoint.
type LemurSummaryParams struct {
	LemurBaseParams
	AnswerFormat *string `json:"answer_format,omitempty"`
}

// LemurActionItemsParams is the request for the action-items endpoint.
type LemurActionItemsParams struct {
	LemurBaseParams
	AnswerFormat *string `json:"answer_format,omitempty"`
}

// LemurTaskParams is the request for the free-form task endpoint.
type LemurTaskParams struct {
	LemurBaseParams
	Prompt string `json:"prompt"`
}

// LemurResponse is the response shape shared by the summary, action-items,
// and task endpoints.
type LemurResponse struct {
	RequestID string `json:"request_id"`
	Response  string `json:"response"`
}

// LemurPurgeResponse confirms deletion of a previous LeMUR request's data.
type LemurPurgeResponse struct {
	RequestID        string `json:"request_id"`
	RequestIDToPurge string `json:"request_id_to_purge"`
	Deleted          bool   `json:"deleted"`
}
