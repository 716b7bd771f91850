package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gip-inclusion/directory-cli/internal/export"
	"github.com/gip-inclusion/directory-cli/internal/model"
	"github.com/gip-inclusion/directory-cli/internal/search"
	"github.com/gip-inclusion/directory-cli/internal/store"
)

var searchFlags struct {
	text           string
	sectors        []string
	zones          []string
	radiusKm       float64
	kinds          []string
	serviceTypes   []string
	territories    []string
	networks       []string
	legalForms     []string
	revenue        string
	hasClientRefs  string
	hasGroups      string
	clientRefName  string
	requestID      string
	interestStatus string
	savedListID    string
	offset         int
	limit          int
	csvPath        string
	xlsxPath       string
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search and rank providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		q := &model.SearchQuery{
			Text:                searchFlags.text,
			SectorIDs:           searchFlags.sectors,
			ZoneIDs:             searchFlags.zones,
			RadiusKm:            searchFlags.radiusKm,
			Territories:         searchFlags.territories,
			NetworkIDs:          searchFlags.networks,
			LegalForms:          searchFlags.legalForms,
			ClientReferenceName: searchFlags.clientRefName,
			RequestID:           searchFlags.requestID,
			InterestStatus:      model.InterestStatus(searchFlags.interestStatus),
			SavedListID:         searchFlags.savedListID,
			Offset:              searchFlags.offset,
			Limit:               searchFlags.limit,
		}
		for _, k := range searchFlags.kinds {
			q.Kinds = append(q.Kinds, model.ProviderKind(k))
		}
		for _, t := range searchFlags.serviceTypes {
			q.ServiceTypes = append(q.ServiceTypes, model.ServiceType(t))
		}
		if searchFlags.revenue != "" {
			if q.Revenue, err = model.ParseRevenueBracket(searchFlags.revenue); err != nil {
				return err
			}
		}
		if q.HasClientReferences, err = boolParam(searchFlags.hasClientRefs); err != nil {
			return err
		}
		if q.HasGroups, err = boolParam(searchFlags.hasGroups); err != nil {
			return err
		}

		engine := search.New(st, search.Options{
			DefaultLimit: cfg.Search.DefaultLimit,
			MaxLimit:     cfg.Search.MaxLimit,
		})
		result, err := engine.Search(ctx, q)
		if err != nil {
			return err
		}

		if searchFlags.csvPath != "" || searchFlags.xlsxPath != "" {
			return exportResult(ctx, st, result)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// exportResult resolves the matched providers and writes them to the
// requested file formats.
func exportResult(ctx context.Context, st store.Store, result *search.Result) error {
	snapshot, err := st.Snapshot(ctx)
	if err != nil {
		return eris.Wrap(err, "export: load snapshot")
	}
	byID := make(map[string]*model.Provider, len(snapshot))
	for i := range snapshot {
		byID[snapshot[i].ID] = &snapshot[i]
	}

	rows := make([]export.Row, 0, len(result.Matches))
	for _, m := range result.Matches {
		p, ok := byID[m.ProviderID]
		if !ok {
			continue
		}
		rows = append(rows, export.Row{Provider: *p, Score: m.Score, DistanceKm: m.DistanceKm})
	}

	if searchFlags.csvPath != "" {
		f, err := os.Create(searchFlags.csvPath)
		if err != nil {
			return eris.Wrapf(err, "export: create %s", searchFlags.csvPath)
		}
		defer f.Close()
		if err := export.CSV(f, rows); err != nil {
			return err
		}
	}
	if searchFlags.xlsxPath != "" {
		f, err := os.Create(searchFlags.xlsxPath)
		if err != nil {
			return eris.Wrapf(err, "export: create %s", searchFlags.xlsxPath)
		}
		defer f.Close()
		if err := export.XLSX(f, rows); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchFlags.text, "query", "q", "", "free-text or identifier query")
	f.StringSliceVar(&searchFlags.sectors, "sectors", nil, "sector ids")
	f.StringSliceVar(&searchFlags.zones, "zones", nil, "zone ids")
	f.Float64Var(&searchFlags.radiusKm, "radius-km", 0, "point-radius distance (requires exactly one city zone)")
	f.StringSliceVar(&searchFlags.kinds, "kinds", nil, "provider kinds (EI, AI, ACI, ...)")
	f.StringSliceVar(&searchFlags.serviceTypes, "service-types", nil, "service types (DISP, PREST, BUILD)")
	f.StringSliceVar(&searchFlags.territories, "territories", nil, "territory flags (QPV, ZRR)")
	f.StringSliceVar(&searchFlags.networks, "networks", nil, "network ids")
	f.StringSliceVar(&searchFlags.legalForms, "legal-forms", nil, "legal forms")
	f.StringVar(&searchFlags.revenue, "revenue", "", "revenue bracket, lower-upper (e.g. 100000-500000)")
	f.StringVar(&searchFlags.hasClientRefs, "has-client-references", "", "true/false, providers with client references")
	f.StringVar(&searchFlags.hasGroups, "has-groups", "", "true/false, providers belonging to a group")
	f.StringVar(&searchFlags.clientRefName, "client-reference", "", "client reference name contains")
	f.StringVar(&searchFlags.requestID, "request", "", "scope to providers notified of a request")
	f.StringVar(&searchFlags.interestStatus, "interest", "", "interest status (ANY, INTERESTED)")
	f.StringVar(&searchFlags.savedListID, "saved-list", "", "scope to a saved provider list")
	f.IntVar(&searchFlags.offset, "offset", 0, "pagination offset")
	f.IntVar(&searchFlags.limit, "limit", 0, "page size (default from config)")
	f.StringVar(&searchFlags.csvPath, "csv", "", "write results to a CSV file")
	f.StringVar(&searchFlags.xlsxPath, "xlsx", "", "write results to an XLSX file")
	rootCmd.AddCommand(searchCmd)
}
