package curriculum

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed seed/lessons.yaml
var defaultCatalog []byte

//go:embed seed/catalog.schema.json
var catalogSchema string

var schemaLoader = gojsonschema.NewStringLoader(catalogSchema)

// LoadCatalog reads a seed catalogue from path. An empty path loads the built-in catalogue.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog: %w", err)
		}
	}

	cat, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %q: %w", path, err)
	}

	slog.Info("lesson catalog loaded", "path", path, "lessons", len(cat.Lessons))
	return cat, nil
}

// ParseCatalog decodes a YAML catalogue and checks it against the catalogue schema.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("checking schema: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid catalog: %s", strings.Join(msgs, "; "))
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return &cat, nil
}

// placeholderQuestion is the generated question used to pad a lesson's quiz.
func placeholderQuestion(n int) QuizQuestion {
	return QuizQuestion{
		Question:      fmt.Sprintf("ما هو السؤال رقم %d؟", n),
		OptionA:       "الخيار الأول",
		OptionB:       "الخيار الثاني",
		OptionC:       "الخيار الثالث",
		OptionD:       "الخيار الرابع",
		CorrectAnswer: AnswerA,
	}
}

// questions returns the lesson's listed questions followed by its placeholders.
func (cl CatalogLesson) questions() []QuizQuestion {
	qs := make([]QuizQuestion, 0, len(cl.Questions)+cl.PlaceholderQuestions)
	qs = append(qs, cl.Questions...)
	for i := range cl.PlaceholderQuestions {
		qs = append(qs, placeholderQuestion(len(cl.Questions)+i+1))
	}
	return qs
}
