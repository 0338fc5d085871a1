package pipeline

import (
	"strings"
	"unicode"

	"github.com/helixir/phd-talent-service/internal/domain"
)

// emergingTopic is a curated trending research label with the keywords that
// identify it inside free-text research interests.
type emergingTopic struct {
	Label    string
	Keywords []string
}

// emergingTopics is ordered: more specific labels come before the broader
// labels whose names they contain.
var emergingTopics = []emergingTopic{
	{"Large Language Models", []string{"llm", "large language model", "language model", "gpt"}},
	{"Reinforcement Learning from Human Feedback", []string{"rlhf", "human feedback", "preference optimization", "alignment"}},
	{"Retrieval-Augmented Generation", []string{"retrieval-augmented", "retrieval augmented", "knowledge-grounded"}},
	{"Generative AI", []string{"generative", "genai", "text-to-image", "image synthesis"}},
	{"Foundation Models", []string{"foundation model", "pretrained model", "pre-trained model", "pretraining"}},
	{"Diffusion Models", []string{"diffusion", "score-based", "denoising"}},
	{"Vision Transformers", []string{"vision transformer"}},
	{"Transformers", []string{"transformer", "self-attention", "attention mechanism"}},
	{"Prompt Engineering", []string{"prompt", "in-context learning", "chain-of-thought"}},
	{"Multimodal Learning", []string{"multimodal", "multi-modal", "vision-language", "vision and language"}},
	{"Graph Neural Networks", []string{"gnn", "graph neural", "graph representation", "graph learning"}},
	{"Federated Learning", []string{"federated"}},
	{"Explainable AI", []string{"explainab", "interpretab", "xai"}},
	{"AI Safety", []string{"ai safety", "safe ai", "red teaming", "jailbreak"}},
	{"Adversarial Machine Learning", []string{"adversarial attack", "adversarial example", "adversarial robustness"}},
	{"Fairness in AI", []string{"fairness", "algorithmic bias", "bias mitigation", "ethical ai"}},
	{"Privacy-Preserving Machine Learning", []string{"differential privacy", "privacy-preserving", "privacy preserving"}},
	{"Neural Architecture Search", []string{"architecture search", "automl"}},
	{"Self-Supervised Learning", []string{"self-supervised", "contrastive learning", "representation learning"}},
	{"Zero-Shot Learning", []string{"zero-shot", "few-shot", "meta-learning", "meta learning"}},
	{"Continual Learning", []string{"continual", "lifelong learning", "catastrophic forgetting", "incremental learning"}},
	{"Efficient Deep Learning", []string{"model compression", "quantization", "pruning", "knowledge distillation", "efficient inference"}},
	{"Edge Computing", []string{"edge computing", "edge ai", "fog computing", "tinyml", "on-device"}},
	{"Sustainable Computing", []string{"sustainab", "green computing", "energy-efficient", "energy efficient", "carbon"}},
	{"Quantum Machine Learning", []string{"quantum machine learning", "quantum computing", "quantum algorithm"}},
	{"Embodied AI", []string{"embodied", "robot learning", "robotic manipulation"}},
	{"Autonomous Driving", []string{"autonomous driving", "self-driving", "autonomous vehicle"}},
	{"Neural Radiance Fields", []string{"nerf", "neural rendering", "radiance field", "gaussian splatting", "3d reconstruction"}},
	{"AI Agents", []string{"llm agent", "autonomous agent", "multi-agent", "agentic"}},
	{"Code Generation", []string{"code generation", "program synthesis", "code llm"}},
	{"Causal Inference", []string{"causal", "counterfactual"}},
	{"Trustworthy AI", []string{"trustworthy", "uncertainty quantification", "reliable ai"}},
	{"Medical AI", []string{"medical", "clinical", "healthcare ai", "biomedical"}},
	{"AI for Science", []string{"ai for science", "scientific machine learning", "protein", "molecular", "drug discovery"}},
	{"Human-AI Interaction", []string{"human-ai", "human-centered ai", "human-in-the-loop"}},
	{"Speech and Audio Generation", []string{"text-to-speech", "speech synthesis", "audio generation"}},
	{"Video Understanding", []string{"video understanding", "video generation", "action recognition", "video"}},
	{"Time Series Forecasting", []string{"time series", "forecasting"}},
	{"Recommender Systems", []string{"recommender", "recommendation", "collaborative filtering"}},
	{"Blockchain and Web3", []string{"blockchain", "smart contract", "web3", "decentralized finance"}},
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "for": {}, "from": {}, "in": {},
	"of": {}, "on": {}, "the": {}, "to": {}, "with": {},
}

// emergingMatcher holds the label table in lower case for matching.
type emergingMatcher struct {
	labels   []string
	lower    []string
	keywords [][]string
	words    [][]string
}

var defaultEmergingMatcher = newEmergingMatcher(emergingTopics)

func newEmergingMatcher(topics []emergingTopic) *emergingMatcher {
	m := &emergingMatcher{
		labels:   make([]string, len(topics)),
		lower:    make([]string, len(topics)),
		keywords: make([][]string, len(topics)),
		words:    make([][]string, len(topics)),
	}
	for i, t := range topics {
		m.labels[i] = t.Label
		m.lower[i] = strings.ToLower(t.Label)
		m.keywords[i] = lowerAll(t.Keywords)
		m.words[i] = significantWords(t.Label)
	}
	return m
}

// MatchEmergingTopic maps a free-text research topic onto at most one
// emerging topic label. Passes run in order over the whole label table:
// direct label match (exact first, then containment in either direction),
// label keyword match, then overlap of at least two significant words with a
// multi-word label.
func MatchEmergingTopic(topic string) (string, bool) {
	return defaultEmergingMatcher.match(topic)
}

// EmergingTopicLabels returns the curated label list in match order.
func EmergingTopicLabels() []string {
	out := make([]string, len(defaultEmergingMatcher.labels))
	copy(out, defaultEmergingMatcher.labels)
	return out
}

func (m *emergingMatcher) match(topic string) (string, bool) {
	t := domain.NormalizeText(topic)
	if t == "" {
		return "", false
	}

	// Exact matches take precedence over containment so that "Transformers"
	// is not claimed by "Vision Transformers".
	for i, label := range m.lower {
		if t == label {
			return m.labels[i], true
		}
	}
	for i, label := range m.lower {
		if strings.Contains(t, label) || strings.Contains(label, t) {
			return m.labels[i], true
		}
	}

	for i, kws := range m.keywords {
		for _, kw := range kws {
			if strings.Contains(t, kw) {
				return m.labels[i], true
			}
		}
	}

	topicWords := make(map[string]struct{})
	for _, w := range significantWords(t) {
		topicWords[w] = struct{}{}
	}
	for i, words := range m.words {
		if len(words) < 2 {
			continue
		}
		shared := 0
		for _, w := range words {
			if _, ok := topicWords[w]; ok {
				shared++
			}
		}
		if shared >= 2 {
			return m.labels[i], true
		}
	}

	return "", false
}

// significantWords splits s into lower-case words on any non letter or digit
// and drops stop words.
func significantWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; !stop {
			out = append(out, f)
		}
	}
	return out
}
