package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/skytin1004/empire-db/database/reader"
	"github.com/skytin1004/empire-db/database/sqldriver"
	"github.com/skytin1004/empire-db/version"
)

func main() {
	cfg, err := parseConfig()
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error parsing command-line arguments: %s", err))
	}
	if cfg.ShowVer {
		fmt.Printf("querydump version %s\n", version.Version())
		return
	}
	initLog(cfg)

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error opening database: %s", err))
	}
	defer db.Close()

	if cfg.TrackLeaks {
		reader.EnableLeakTracking(true)
	}

	cmd, err := sqldriver.BuildCommand(db, cfg.Query)
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error describing query: %s", err))
	}
	conn := sqldriver.NewConnection(db)

	r := reader.New()
	err = r.Open(cmd, cfg.Scrollable, conn)
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error executing query: %s", err))
	}
	defer r.Close()

	if cfg.XML {
		err = r.ExportXML(os.Stdout)
		if err != nil {
			printErrorAndExit(fmt.Sprintf("error exporting rows: %s", err))
		}
		fmt.Println()
	} else {
		err = printRows(r, cfg.MaxRows)
		if err != nil {
			printErrorAndExit(fmt.Sprintf("error reading rows: %s", err))
		}
	}

	if cfg.TrackLeaks {
		r.Close()
		leaks, err := reader.AuditOpenReaders()
		if err != nil {
			printErrorAndExit(fmt.Sprintf("error auditing open readers: %s", err))
		}
		if len(leaks) > 0 {
			printErrorAndExit(fmt.Sprintf("%d readers were left open", len(leaks)))
		}
	}
}

func printRows(r *reader.Reader, maxRows int) error {
	header := make([]string, r.FieldCount())
	for i := range header {
		header[i] = r.ColumnExpr(i).Name()
	}
	fmt.Println(strings.Join(header, "\t"))

	it := r.Iterator(maxRows)
	if it == nil {
		return nil
	}
	for {
		row := it.Next()
		if row == nil {
			break
		}
		cells := make([]string, row.FieldCount())
		for i := range cells {
			if row.IsNull(i) {
				cells[i] = "NULL"
				continue
			}
			value, err := row.Value(i)
			if err != nil {
				return err
			}
			cells[i] = fmt.Sprintf("%v", value)
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
	if err := it.Err(); err != nil {
		return err
	}
	log.Infof("Printed %d rows", it.Count())
	return nil
}
