package models

import "fmt"

// Report is a logical report sheet fed by uploads.
type Report string

const (
	ReportCalls     Report = "calls"
	ReportLeads     Report = "leads"
	ReportInitial   Report = "initial_consultations"
	ReportDiscovery Report = "discovery_meetings"
	ReportClients   Report = "new_clients"
)

// System sheets owned by the data manager.
const (
	SheetMaster  = "master"
	SheetBatches = "batches"
)

// Kind separates aggregated call-log reports from per-matter conversion reports.
type Kind int

const (
	KindCalls Kind = iota
	KindConversion
)

var Reports = []Report{ReportCalls, ReportLeads, ReportInitial, ReportDiscovery, ReportClients}

var tabTitles = map[string]string{
	string(ReportCalls):     "Call_Report_Master",
	string(ReportLeads):     "Leads_PNCs_Master",
	string(ReportInitial):   "Initial_Consultation_Master",
	string(ReportDiscovery): "Discovery_Meeting_Master",
	string(ReportClients):   "New_Client_List_Master",
	SheetMaster:             "Ingestion_Master",
	SheetBatches:            "Batch_Registry",
}

// legacy tab names still present in older spreadsheets
var tabFallbacks = map[string][]string{
	string(ReportCalls):     {"Zoom_Calls"},
	string(ReportLeads):     {"Leads_PNCs"},
	string(ReportInitial):   {"Initial_Consultation"},
	string(ReportDiscovery): {"Discovery_Meeting"},
	string(ReportClients):   {"New_Clients", "New Client List"},
}

func ParseReport(s string) (Report, error) {
	for _, r := range Reports {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown report %q", s)
}

func (r Report) Kind() Kind {
	if r == ReportCalls {
		return KindCalls
	}
	return KindConversion
}

// Header returns the canonical column order of the report sheet.
func (r Report) Header() []string {
	if r.Kind() == KindCalls {
		return withMeta(CallsColumns)
	}
	return withMeta(ConversionColumns)
}

// TabTitle is the remote tab name for a logical sheet.
func TabTitle(sheet string) string {
	if t, ok := tabTitles[sheet]; ok {
		return t
	}
	return sheet
}

func TabFallbacks(sheet string) []string {
	return tabFallbacks[sheet]
}

// AllSheets lists every logical sheet with its canonical header.
func AllSheets() map[string][]string {
	out := map[string][]string{
		SheetMaster:  MasterHeader(),
		SheetBatches: BatchHeader,
	}
	for _, r := range Reports {
		out[string(r)] = r.Header()
	}
	return out
}
