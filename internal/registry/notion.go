package registry

import (
	"context"
	"sort"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/model"
	"github.com/sells-group/assessment-cli/pkg/notion"
)

// Notion property names of the question database.
const (
	propText        = "Question"
	propKey         = "Key"
	propCategory    = "Category"
	propSubcategory = "Subcategory"
	propType        = "Type"
	propRequired    = "Required"
	propPriority    = "Priority"
	propOrder       = "Order"
	propSectors     = "Sectors"
	propOptions     = "Options"
	propMin         = "Min"
	propMax         = "Max"
	propFollowUp    = "Follow Up"
	propStatus      = "Status"

	// Translations live in rich_text properties named "Text (fr)".
	translationPrefix = "Text ("

	statusActive  = "Active"
	statusRetired = "Retired"
)

// requiredProps must exist on the question database before publishing.
var requiredProps = []string{propText, propKey, propCategory, propType, propStatus}

// LoadQuestionRegistry queries the Notion question database for all active
// questions and returns them as model.Question values.
func LoadQuestionRegistry(ctx context.Context, client notion.Client, dbID string) ([]model.Question, error) {
	pages, err := notion.QueryByStatus(ctx, client, dbID, statusActive,
		notionapi.SortObject{Property: propOrder, Direction: notionapi.SortOrderASC})
	if err != nil {
		return nil, eris.Wrap(err, "registry: load question registry")
	}

	var questions []model.Question
	for _, p := range pages {
		q, err := parseQuestionPage(p)
		if err != nil {
			zap.L().Warn("registry: skipping malformed question page",
				zap.String("page_id", string(p.ID)),
				zap.Error(err),
			)
			continue
		}
		questions = append(questions, q)
	}

	return questions, nil
}

func parseQuestionPage(p notionapi.Page) (model.Question, error) {
	q := model.Question{
		ID:     string(p.ID),
		Text:   make(map[string]string),
		Active: true,
	}

	for name, prop := range p.Properties {
		switch v := prop.(type) {
		case *notionapi.TitleProperty:
			if name == propText {
				q.Text[model.DefaultLocale] = plainText(v.Title)
			}
		case *notionapi.RichTextProperty:
			switch {
			case name == propKey:
				if key := plainText(v.RichText); key != "" {
					q.ID = key
				}
			case name == propSubcategory:
				q.Subcategory = plainText(v.RichText)
			case strings.HasPrefix(name, translationPrefix) && strings.HasSuffix(name, ")"):
				locale := strings.TrimSuffix(strings.TrimPrefix(name, translationPrefix), ")")
				if text := plainText(v.RichText); text != "" {
					q.Text[locale] = text
				}
			}
		case *notionapi.SelectProperty:
			switch name {
			case propCategory:
				q.Category = v.Select.Name
			case propType:
				q.Type = model.QuestionType(v.Select.Name)
			case propPriority:
				q.Priority = v.Select.Name
			}
		case *notionapi.MultiSelectProperty:
			switch name {
			case propSectors:
				for _, opt := range v.MultiSelect {
					q.Sectors = append(q.Sectors, opt.Name)
				}
			case propOptions:
				for _, opt := range v.MultiSelect {
					q.Options = append(q.Options, model.Option{Value: opt.Name})
				}
			}
		case *notionapi.NumberProperty:
			n := v.Number
			switch name {
			case propOrder:
				q.DisplayOrder = int(n)
			case propMin:
				q.Validation.Min = &n
			case propMax:
				q.Validation.Max = &n
			}
		case *notionapi.CheckboxProperty:
			switch name {
			case propRequired:
				q.Required = v.Checkbox
			case propFollowUp:
				q.FollowUp = v.Checkbox
			}
		}
	}

	if q.Text[model.DefaultLocale] == "" {
		return q, eris.Errorf("missing %s property", propText)
	}
	if q.Type == "" {
		return q, eris.Errorf("missing %s property", propType)
	}
	if len(q.Sectors) == 0 {
		q.Sectors = []string{model.SectorAll}
	}
	return q, nil
}

// plainText concatenates the plain_text values from a slice of RichText.
func plainText(rts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rts {
		b.WriteString(rt.PlainText)
	}
	return b.String()
}

// PublishResult counts the pages touched by PublishQuestions.
type PublishResult struct {
	Created int
	Updated int
	Retired int
}

// PublishOptions tunes PublishQuestions.
type PublishOptions struct {
	// Retire marks pages whose Key is absent from the published set as
	// Retired so the loader stops serving them.
	Retire bool
}

// PublishQuestions writes questions into a Notion question database so the
// catalog can be curated there. Pages are matched on the Key property:
// existing pages are updated, new questions are created as Active pages.
func PublishQuestions(ctx context.Context, client notion.Client, dbID string, questions []model.Question, opts PublishOptions) (PublishResult, error) {
	var res PublishResult

	if err := checkSchema(ctx, client, dbID); err != nil {
		return res, err
	}

	pages, err := notion.QueryAll(ctx, client, dbID, nil)
	if err != nil {
		return res, eris.Wrap(err, "registry: list existing questions")
	}
	existing := make(map[string]notionapi.Page, len(pages))
	for _, p := range pages {
		if key := pageKey(p); key != "" {
			existing[key] = p
		}
	}

	published := make(map[string]bool, len(questions))
	for _, q := range questions {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "registry: publish cancelled")
		}
		published[q.ID] = true

		props := questionProperties(q)
		if page, ok := existing[q.ID]; ok {
			if _, err := client.UpdatePage(ctx, string(page.ID), &notionapi.PageUpdateRequest{Properties: props}); err != nil {
				return res, eris.Wrapf(err, "registry: update question %s", q.ID)
			}
			res.Updated++
			continue
		}

		props[propStatus] = notionapi.StatusProperty{Status: notionapi.Status{Name: statusActive}}
		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(dbID),
			},
			Properties: props,
		}
		if _, err := client.CreatePage(ctx, req); err != nil {
			return res, eris.Wrapf(err, "registry: create question %s", q.ID)
		}
		res.Created++
	}

	if !opts.Retire {
		return res, nil
	}

	keys := make([]string, 0, len(existing))
	for key := range existing {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		page := existing[key]
		if published[key] || pageStatus(page) == statusRetired {
			continue
		}
		req := &notionapi.PageUpdateRequest{Properties: notionapi.Properties{
			propStatus: notionapi.StatusProperty{Status: notionapi.Status{Name: statusRetired}},
		}}
		if _, err := client.UpdatePage(ctx, string(page.ID), req); err != nil {
			return res, eris.Wrapf(err, "registry: retire question %s", key)
		}
		zap.L().Info("registry: retired question", zap.String("question_id", key))
		res.Retired++
	}

	return res, nil
}

// checkSchema fails when the database lacks a property the publisher writes.
func checkSchema(ctx context.Context, client notion.Client, dbID string) error {
	db, err := client.GetDatabase(ctx, dbID)
	if err != nil {
		return eris.Wrap(err, "registry: read question database")
	}
	var missing []string
	for _, name := range requiredProps {
		if _, ok := db.Properties[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("registry: question database %s missing properties: %s", dbID, strings.Join(missing, ", "))
	}
	return nil
}

func pageKey(p notionapi.Page) string {
	if prop, ok := p.Properties[propKey].(*notionapi.RichTextProperty); ok {
		return strings.TrimSpace(plainText(prop.RichText))
	}
	return ""
}

func pageStatus(p notionapi.Page) string {
	if prop, ok := p.Properties[propStatus].(*notionapi.StatusProperty); ok {
		return prop.Status.Name
	}
	return ""
}

func questionProperties(q model.Question) notionapi.Properties {
	props := notionapi.Properties{
		propText:     notionapi.TitleProperty{Title: richText(q.Text[model.DefaultLocale])},
		propKey:      notionapi.RichTextProperty{RichText: richText(q.ID)},
		propCategory: notionapi.SelectProperty{Select: notionapi.Option{Name: q.Category}},
		propType:     notionapi.SelectProperty{Select: notionapi.Option{Name: string(q.Type)}},
		propRequired: notionapi.CheckboxProperty{Checkbox: q.Required},
		propOrder:    notionapi.NumberProperty{Number: float64(q.DisplayOrder)},
		propFollowUp: notionapi.CheckboxProperty{Checkbox: q.FollowUp},
		propSectors:  notionapi.MultiSelectProperty{MultiSelect: selectOptions(q.Sectors)},
	}
	if q.Subcategory != "" {
		props[propSubcategory] = notionapi.RichTextProperty{RichText: richText(q.Subcategory)}
	}
	if q.Priority != "" {
		props[propPriority] = notionapi.SelectProperty{Select: notionapi.Option{Name: q.Priority}}
	}
	if len(q.Options) > 0 {
		values := make([]string, len(q.Options))
		for i, o := range q.Options {
			values[i] = o.Value
		}
		props[propOptions] = notionapi.MultiSelectProperty{MultiSelect: selectOptions(values)}
	}
	if q.Validation.Min != nil {
		props[propMin] = notionapi.NumberProperty{Number: *q.Validation.Min}
	}
	if q.Validation.Max != nil {
		props[propMax] = notionapi.NumberProperty{Number: *q.Validation.Max}
	}

	locales := make([]string, 0, len(q.Text))
	for l := range q.Text {
		if l != model.DefaultLocale {
			locales = append(locales, l)
		}
	}
	sort.Strings(locales)
	for _, l := range locales {
		props[translationPrefix+l+")"] = notionapi.RichTextProperty{RichText: richText(q.Text[l])}
	}
	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}}
}

func selectOptions(names []string) []notionapi.Option {
	opts := make([]notionapi.Option, len(names))
	for i, n := range names {
		opts[i] = notionapi.Option{Name: n}
	}
	return opts
}
