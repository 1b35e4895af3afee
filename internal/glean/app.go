package glean

import (
	"encoding/json"
	"strings"
)

// DefaultChannel is assumed for applications that do not declare one.
const DefaultChannel = "release"

// App is one entry of the application registry. Each App is a single app id;
// several share an AppName.
type App struct {
	AppName            string   `json:"app_name"`
	AppID              string   `json:"app_id"`
	AppDescription     string   `json:"app_description"`
	CanonicalAppName   string   `json:"canonical_app_name"`
	URL                string   `json:"url"`
	NotificationEmails []string `json:"notification_emails"`
	BQDatasetFamily    string   `json:"bq_dataset_family"`
	DocumentNamespace  string   `json:"document_namespace"`
	V1Name             string   `json:"v1_name"`
	AppChannel         string   `json:"app_channel,omitempty"`
	Description        string   `json:"description,omitempty"`
	Deprecated         bool     `json:"deprecated,omitempty"`
	Prototype          bool     `json:"prototype,omitempty"`
	SkipDocumentation  bool     `json:"skip_documentation,omitempty"`

	raw map[string]json.RawMessage
}

type appAlias App

// UnmarshalJSON implements json.Unmarshaler, retaining every registry key.
func (a *App) UnmarshalJSON(data []byte) error {
	var alias appAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = App(alias)
	a.raw = raw
	return nil
}

// MarshalJSON implements json.Marshaler. Registry records are republished
// with every key they arrived with.
func (a App) MarshalJSON() ([]byte, error) {
	if a.raw == nil {
		return json.Marshal(appAlias(a))
	}
	return json.Marshal(a.raw)
}

// Channel returns the release channel, defaulting to release.
func (a App) Channel() string {
	if a.AppChannel == "" {
		return DefaultChannel
	}
	return a.AppChannel
}

// VariantDescription returns the per-id description, falling back to the
// group description.
func (a App) VariantDescription() string {
	if a.Description != "" {
		return a.Description
	}
	return a.AppDescription
}

// ChannelLabel describes the app id in ping and metric variant listings.
func (a App) ChannelLabel() string {
	label := a.Channel()
	if a.Deprecated {
		label = "[Deprecated] " + label
	}
	return label
}

// Library is one entry of the library catalog.
type Library struct {
	DependencyName string `json:"dependency_name"`
	LibraryName    string `json:"library_name"`
	V1Name         string `json:"v1_name"`
}

// DefaultLibrary returns the base telemetry library used when an application
// declares no known dependencies.
func DefaultLibrary(name string) Library {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "glean-core"
	}
	return Library{DependencyName: name, LibraryName: name, V1Name: name}
}
