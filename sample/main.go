// Command sample connects to a local Open vSwitch database, inserts a
// bridge and mirrors the Bridge table until interrupted.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"github.com/holodekk/ovsdb/pkg/dbmonitor"
	"github.com/holodekk/ovsdb/pkg/ovsdb"
	"github.com/holodekk/ovsdb/pkg/ovshelper"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	db, err := ovsdb.Dial("unix", "/run/openvswitch/db.sock",
		ovsdb.WithLogger(log),
		ovsdb.WithTimeout(10*time.Second))
	if err != nil {
		log.Fatal().Err(err).Msg("dial failed")
	}
	defer db.Close()

	dbs, err := db.ListDbs()
	if err != nil {
		log.Fatal().Err(err).Msg("list_dbs failed")
	}
	log.Info().Strs("databases", dbs).Msg("connected")

	schema, err := db.GetSchema(ovshelper.DatabaseName)
	if err != nil {
		log.Fatal().Err(err).Msg("get_schema failed")
	}
	log.Info().
		Str("version", schema.Version).
		Int("tables", len(schema.Tables)).
		Msg("schema fetched")

	bridge := &ovshelper.Bridge{Name: "br-sample"}
	txn := db.Transaction(ovshelper.DatabaseName)
	txn.Insert(bridge.TableName(), bridge.ToWire())
	result, err := txn.Commit()
	if err != nil {
		log.Fatal().Err(err).Msg("transaction failed")
	}
	log.Info().Str("uuid", result[0].UUID.String()).Msg("bridge inserted")

	mon := db.Monitor(ovshelper.DatabaseName)
	mon.Register(bridge.TableName(), nil)
	err = mon.Start(func(ev dbmonitor.RowEvent) {
		fmt.Printf("%s %s %s\n", ev.Op, ev.Table, ev.UUID)
	}, func(err error) {
		log.Error().Err(err).Msg("monitor lost")
	})
	if err != nil {
		log.Fatal().Err(err).Msg("monitor failed")
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt
}
