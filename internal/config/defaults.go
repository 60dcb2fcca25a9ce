package config

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Log:   LogConfig{Level: "info", Format: "json"},
		Auth:  AuthConfig{JWTIssuer: "law-reports", TokenTTLHours: 12},
		Store: StoreConfig{Driver: "memory", CacheTTLSeconds: 300},
		Retry: RetryConfig{MaxRetries: 3, BaseDelayMS: 500, MaxDelayMS: 8000},
		Ingest: IngestConfig{
			MaxUploadMB: 20,
		},
		Archive: ArchiveConfig{Prefix: "uploads"},
		Rosters: RostersConfig{
			Staff:          defaultStaff(),
			Attorneys:      defaultAttorneys(),
			ExcludedStages: defaultExcludedStages(),
		},
	}
}

func defaultStaff() RosterConfig {
	return RosterConfig{
		Allowed: []string{
			"Anastasia Economopoulos", "Aneesah Shaik", "Azariah", "Chloe", "Donnay", "Earl",
			"Faeryal Sahadeo", "Kaithlyn", "Micayla Sam", "Nathanial Beneke", "Nobuhle",
			"Rialet", "Riekie Van Ellinckhuyzen", "Shaylin Steyn", "Sihle Gadu",
			"Thabang Tshubyane", "Tiffany",
		},
		// Full names as they appear in the CRM exports map to the phone system names.
		Aliases: map[string]string{
			"Riekie Van Ellinckhuyzen": "Maria Van Ellinckhuyzen",
			"Azariah Pillay":           "Azariah",
			"Chloe Lansdell":           "Chloe",
			"Earl Michaels":            "Earl",
			"Kaithlyn Maharaj":         "Kaithlyn",
			"Nobuhle Mnikathi":         "Nobuhle",
			"Rialet van Heerden":       "Rialet",
			"Tiffany Pillay":           "Tiffany",
		},
		Categories: map[string]string{
			"Anastasia Economopoulos": "Intake",
			"Aneesah Shaik":           "Intake",
			"Azariah":                 "Intake",
			"Chloe":                   "Intake IC",
			"Donnay":                  "Receptionist",
			"Earl":                    "Intake",
			"Faeryal Sahadeo":         "Intake",
			"Kaithlyn":                "Intake",
			"Micayla Sam":             "Intake",
			"Nathanial Beneke":        "Intake",
			"Nobuhle":                 "Intake IC",
			"Rialet":                  "Intake",
			"Maria Van Ellinckhuyzen": "Receptionist",
			"Shaylin Steyn":           "Receptionist",
			"Sihle Gadu":              "Intake",
			"Thabang Tshubyane":       "Intake",
			"Tiffany":                 "Intake",
		},
	}
}

func defaultAttorneys() RosterConfig {
	areas := map[string][]string{
		"Estate Planning": {"Connor Watkins", "Jennifer Fox", "Rebecca Megel"},
		"Estate Administration": {
			"Adam Hill", "Elias Kerby", "Elizabeth Ross", "Garrett Kizer",
			"Kyle Grabulis", "Sarah Kravetz", "Jamie Kliem", "Carter McClain",
		},
		"Civil Litigation": {
			"Andrew Suddarth", "William Bang", "Bret Giaimo",
			"Hannah Supernor", "Laura Kouremetis", "Lukios Stefan", "William Gogoel",
		},
		"Business Transactional": {"Kevin Jaros"},
		"Other":                  {"Robert Brown", "Justine Sennott", "Paul Abraham"},
	}

	r := RosterConfig{
		Aliases: map[string]string{
			"Eli Kerby":     "Elias Kerby",
			"Billy Bang":    "William Bang",
			"Will Gogoel":   "William Gogoel",
			"Andy Suddarth": "Andrew Suddarth",
		},
		Initials: map[string]string{
			"CW": "Connor Watkins", "JF": "Jennifer Fox", "RM": "Rebecca Megel",
			"AH": "Adam Hill", "EK": "Elias Kerby", "ER": "Elizabeth Ross",
			"GK": "Garrett Kizer", "KG": "Kyle Grabulis", "SK": "Sarah Kravetz",
			"AS": "Andrew Suddarth", "WB": "William Bang", "BG": "Bret Giaimo",
			"HS": "Hannah Supernor", "LK": "Laura Kouremetis", "LS": "Lukios Stefan",
			"WG": "William Gogoel", "KJ": "Kevin Jaros", "JK": "Jamie Kliem",
			"CM": "Carter McClain", "RB": "Robert Brown", "JS": "Justine Sennott",
			"PA": "Paul Abraham",
		},
		Categories: map[string]string{},
	}
	for area, names := range areas {
		for _, n := range names {
			r.Allowed = append(r.Allowed, n)
			r.Categories[n] = area
		}
	}
	for alias := range r.Aliases {
		r.Allowed = append(r.Allowed, alias)
	}
	return r
}

func defaultExcludedStages() []string {
	return []string{
		"Marketing/Scam/Spam (Non-Lead)", "Referred Out", "No Stage", "New Lead",
		"No Follow Up (No Marketing/Communication)",
		"No Follow Up (Receives Marketing/Communication)",
	}
}
