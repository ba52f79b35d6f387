package handler

import (
	"net/http"
	"reflect"
	"testing"

	"github.com/gennetta/gennetta/internal/model"
)

func TestListDrivers(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/drivers", nil)
	assertStatus(t, rr, http.StatusOK)

	var drivers []model.DriverInfo
	decodeJSON(t, rr, &drivers)
	want := []model.DriverInfo{
		{Name: "broken", Live: true},
		{Name: "demo", Live: false},
		{Name: "sqlite", Live: true},
	}
	if !reflect.DeepEqual(drivers, want) {
		t.Errorf("drivers = %+v, want %+v", drivers, want)
	}
}

func TestSystemInfo(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/system/info", nil)
	assertStatus(t, rr, http.StatusOK)

	var info systemInfo
	decodeJSON(t, rr, &info)
	if info.Version != "test" || info.DefaultDriver != "demo" || info.AuthEnabled {
		t.Errorf("info = %+v", info)
	}
	if !reflect.DeepEqual(info.Drivers, []string{"broken", "demo", "sqlite"}) {
		t.Errorf("drivers = %v", info.Drivers)
	}
	if !reflect.DeepEqual(info.Targets, []string{"mssql", "mysql", "postgres", "sqlite"}) {
		t.Errorf("targets = %v", info.Targets)
	}
}
