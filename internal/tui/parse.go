package tui

import (
	"strings"

	"github.com/Dhanuzh/starbott/internal/api"
)

// DefaultModelOptions is the picker list shown before /v1/models answers.
func DefaultModelOptions() []ModelOption {
	return []ModelOption{
		{Provider: "azure", Model: "claude-haiku-4-5", Label: "Claude Haiku 4.5"},
		{Provider: "auto", Label: "Auto"},
		{Provider: "kimi", Label: "Kimi K2"},
		{Provider: "vertex", Model: "gemini-3-flash-preview", Label: "Gemini 3 Flash Preview"},
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := api.StringField(m, k); s != "" {
			return s
		}
	}
	return ""
}

func boolField(m map[string]any, key string, def bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return def
}

func floatField(m map[string]any, key string, def float64) float64 {
	if f, ok := m[key].(float64); ok {
		return f
	}
	return def
}

func objects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, v := range list {
		if o, ok := v.(map[string]any); ok {
			out = append(out, o)
		}
	}
	return out
}

// ParseModelOptions reads {"providers": [...]}. ok is false when the key is
// missing or not an array.
func ParseModelOptions(payload map[string]any) ([]ModelOption, bool) {
	list, ok := payload["providers"].([]any)
	if !ok {
		return nil, false
	}
	options := make([]ModelOption, 0, len(list))
	for _, p := range objects(list) {
		label := firstString(p, "label", "id")
		if label == "" {
			label = "unknown"
		}
		provider := firstString(p, "provider", "id")
		if provider == "" {
			provider = "auto"
		}
		if before, _, found := strings.Cut(provider, ":"); found {
			provider = before
		}
		options = append(options, ModelOption{
			Provider: provider,
			Model:    api.StringField(p, "model"),
			Label:    label,
		})
	}
	return options, true
}

// findModelIndex returns the option matching provider and model, or -1.
func findModelIndex(options []ModelOption, provider, model string) int {
	for i, o := range options {
		if o.Provider == provider && o.Model == model {
			return i
		}
	}
	return -1
}

// ParseWorkspaceOptions reads {"workspaces": [...]}, skipping entries without an id.
func ParseWorkspaceOptions(payload map[string]any) ([]WorkspaceOption, bool) {
	list, ok := payload["workspaces"].([]any)
	if !ok {
		return nil, false
	}
	options := make([]WorkspaceOption, 0, len(list))
	for _, w := range objects(list) {
		id := api.StringField(w, "id")
		if id == "" {
			continue
		}
		name := api.StringField(w, "name")
		if name == "" {
			name = "workspace"
		}
		options = append(options, WorkspaceOption{
			ID:         id,
			Name:       name,
			RootPath:   api.StringField(w, "rootPath"),
			Archived:   boolField(w, "archived", false),
			LastUsedAt: api.StringField(w, "lastUsedAt"),
		})
	}
	return options, true
}

func parseThreadOptions(payload map[string]any) ([]ThreadOption, bool) {
	list, ok := payload["threads"].([]any)
	if !ok {
		return nil, false
	}
	options := make([]ThreadOption, 0, len(list))
	for _, t := range objects(list) {
		id := api.StringField(t, "id")
		if id == "" {
			continue
		}
		title := api.StringField(t, "title")
		if title == "" {
			title = "Untitled"
		}
		count, _ := api.IntField(api.ObjectField(t, "_count"), "messages")
		options = append(options, ThreadOption{
			ID:            id,
			Title:         title,
			Mode:          api.StringField(t, "mode"),
			LastMessageAt: api.StringField(t, "lastMessageAt"),
			Pinned:        boolField(t, "isPinned", false),
			MessageCount:  count,
		})
	}
	return options, true
}

// parseThreadMessages reads a stored transcript. Tool messages are shown as
// system entries; empty and unknown-role messages are skipped.
func parseThreadMessages(payload map[string]any) ([]Message, bool) {
	list, ok := payload["messages"].([]any)
	if !ok {
		return nil, false
	}
	out := make([]Message, 0, len(list))
	for _, m := range objects(list) {
		var role Role
		switch api.StringField(m, "role") {
		case "user":
			role = RoleUser
		case "assistant":
			role = RoleAssistant
		case "system", "tool":
			role = RoleSystem
		default:
			continue
		}
		content := api.StringField(m, "content")
		if content == "" {
			continue
		}
		out = append(out, Message{Role: role, Content: content, Sendable: role != RoleSystem})
	}
	return out, true
}

func parseMemoryItems(payload map[string]any) ([]MemoryItem, bool) {
	list, ok := payload["items"].([]any)
	if !ok {
		return nil, false
	}
	items := make([]MemoryItem, 0, len(list))
	for _, it := range objects(list) {
		id := api.StringField(it, "id")
		if id == "" {
			continue
		}
		item := MemoryItem{
			ID:         id,
			Scope:      api.StringField(it, "scope"),
			ProjectID:  api.StringField(it, "projectId"),
			Type:       api.StringField(it, "type"),
			Content:    api.StringField(it, "content"),
			Salience:   floatField(it, "salience", 0.5),
			Confidence: floatField(it, "confidence", 0.7),
			Source:     api.StringField(it, "source"),
			Enabled:    boolField(it, "enabled", true),
			CreatedAt:  api.StringField(it, "createdAt"),
			UpdatedAt:  api.StringField(it, "updatedAt"),
		}
		if item.Scope == "" {
			item.Scope = "global"
		}
		if item.Type == "" {
			item.Type = "fact"
		}
		if item.Source == "" {
			item.Source = "manual"
		}
		for _, tag := range api.ArrayField(it, "tags") {
			if s, ok := tag.(string); ok {
				item.Tags = append(item.Tags, s)
			}
		}
		items = append(items, item)
	}
	return items, true
}

// parseMemorySettings never fails; missing fields take the server defaults.
func parseMemorySettings(payload map[string]any) MemorySettings {
	s := DefaultMemorySettings()
	s.Enabled = boolField(payload, "enabled", s.Enabled)
	s.AllowAutoCapture = boolField(payload, "allowAutoCapture", s.AllowAutoCapture)
	if n, ok := api.IntField(payload, "maxContextTokens"); ok {
		s.MaxContextTokens = n
	}
	if n, ok := api.IntField(payload, "maxItemsInjected"); ok {
		s.MaxItemsInjected = n
	}
	s.IncludeGlobal = boolField(payload, "includeGlobal", s.IncludeGlobal)
	s.IncludeProject = boolField(payload, "includeProject", s.IncludeProject)
	return s
}

func parseFiles(payload map[string]any) ([]FileNode, bool) {
	list, ok := payload["files"].([]any)
	if !ok {
		return nil, false
	}
	files := make([]FileNode, 0, len(list))
	for _, f := range objects(list) {
		node := FileNode{
			Name:         api.StringField(f, "name"),
			Path:         api.StringField(f, "path"),
			IsDir:        boolField(f, "is_dir", boolField(f, "isDir", false)),
			Size:         -1,
			LastModified: firstString(f, "last_modified", "lastModified"),
		}
		if n, ok := api.IntField(f, "size"); ok {
			node.Size = int64(n)
		}
		files = append(files, node)
	}
	return files, true
}

// parseChoicePrompt reads "choicePrompt" (or "choice_prompt"). Options with an
// unknown action or missing required fields are dropped; a prompt with no
// usable options is nil.
func parseChoicePrompt(payload map[string]any) *ChoicePrompt {
	cp := api.ObjectField(payload, "choicePrompt")
	if cp == nil {
		cp = api.ObjectField(payload, "choice_prompt")
	}
	if cp == nil {
		return nil
	}
	list, ok := cp["options"].([]any)
	if !ok {
		return nil
	}

	prompt := &ChoicePrompt{
		ID:                api.StringField(cp, "id"),
		Title:             api.StringField(cp, "title"),
		Hint:              api.StringField(cp, "hint"),
		AllowCustom:       boolField(cp, "allowCustom", boolField(cp, "allow_custom", false)),
		CustomPlaceholder: firstString(cp, "customPlaceholder", "custom_placeholder"),
	}
	if prompt.ID == "" {
		prompt.ID = "choice"
	}
	if prompt.Title == "" {
		prompt.Title = "Choose an option"
	}

	for _, o := range objects(list) {
		id := api.StringField(o, "id")
		label := api.StringField(o, "label")
		if label == "" {
			label = id
		}
		if label == "" {
			continue
		}
		action, ok := parseChoiceAction(api.ObjectField(o, "action"))
		if !ok {
			continue
		}
		prompt.Options = append(prompt.Options, ChoiceOption{
			ID:          id,
			Label:       label,
			Description: api.StringField(o, "description"),
			Action:      action,
		})
	}
	if len(prompt.Options) == 0 {
		return nil
	}
	return prompt
}

func parseChoiceAction(a map[string]any) (ChoiceAction, bool) {
	if a == nil {
		return ChoiceAction{}, false
	}
	switch t := ChoiceActionType(api.StringField(a, "type")); t {
	case ActionSetWorkspace:
		ws := firstString(a, "workspaceId", "workspace_id")
		return ChoiceAction{Type: t, WorkspaceID: ws}, ws != ""
	case ActionTool:
		tool := firstString(a, "toolName", "tool_name", "tool")
		input, ok := a["input"]
		if !ok || input == nil {
			input = map[string]any{}
		}
		return ChoiceAction{Type: t, ToolName: tool, Input: input}, tool != ""
	case ActionInput:
		prompt := api.StringField(a, "prompt")
		if _, present := a["prompt"]; !present {
			prompt = "Input"
		}
		return ChoiceAction{Type: t, Prompt: prompt}, true
	case ActionSendMessage:
		text := api.StringField(a, "text")
		return ChoiceAction{Type: t, Text: text}, text != ""
	default:
		return ChoiceAction{}, false
	}
}

// parseTriageLane reads triage.lane (quick, standard or deep).
func parseTriageLane(payload map[string]any) string {
	lane := strings.ToLower(api.StringField(api.ObjectField(payload, "triage"), "lane"))
	switch lane {
	case "quick", "standard", "deep":
		return lane
	}
	return ""
}

// parseVertexOK reads providers.gemini from /health. ok is false when unknown.
func parseVertexOK(payload map[string]any) (available, ok bool) {
	switch api.StringField(api.ObjectField(payload, "providers"), "gemini") {
	case "available":
		return true, true
	case "unavailable":
		return false, true
	}
	return false, false
}
