package models

// ServiceMetadata describes a service type from the catalogue.
type ServiceMetadata struct {
	Code          string `json:"code" yaml:"code"`
	Name          string `json:"name" yaml:"name"`
	IsSystemChain bool   `json:"is_system_chain" yaml:"is_system_chain"`
	BlocksNextDay bool   `json:"blocks_next_day" yaml:"blocks_next_day"`
	// PairedService is assigned automatically in the evening of a chain
	// head's date.
	PairedService string `json:"paired_service,omitempty" yaml:"paired_service"`
}
