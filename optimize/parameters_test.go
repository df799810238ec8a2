package optimize

import (
	"encoding/json"
	"testing"
)

const (
	json1 = "{\"a\":7.2,\"b\":1.17e-22,\"c\":0,\"d \\\"!\":0.999999}"
)

func TestMarshalParameters(tst *testing.T) {
	var pars FloatParameters
	a := 7.2
	b := 1.17e-22
	c := 0.0
	d := 0.999999
	pars.Append(NewBasicFloatParameter(&a, "a"))
	pars.Append(NewBasicFloatParameter(&b, "b"))
	pars.Append(NewBasicFloatParameter(&c, "c"))
	pars.Append(NewBasicFloatParameter(&d, "d \"!"))
	j, err := json.Marshal(pars)
	if err != nil {
		tst.Error("Error: ", err)
	}
	if string(j) != json1 {
		tst.Errorf("Incorrect encoded json value. Expected:\n'%v'\n got\n'%v'", json1, string(j))
	}
}

func TestUnmarshalParameters(tst *testing.T) {
	var pars FloatParameters
	a := 1.0
	b := 1.0
	c := 1.0
	d := 1.0
	pars.Append(NewBasicFloatParameter(&a, "a"))
	pars.Append(NewBasicFloatParameter(&b, "b"))
	pars.Append(NewBasicFloatParameter(&c, "c"))
	pars.Append(NewBasicFloatParameter(&d, "d \"!"))
	err := json.Unmarshal([]byte(json1), &pars)
	if err != nil {
		tst.Error("Error: ", err)
	}
	j, err := json.Marshal(pars)
	if string(j) != json1 {
		tst.Errorf("Incorrect encoded json value. Expected:\n'%v'\n got\n'%v'", json1, string(j))
	}
}

func TestSetFromMap(tst *testing.T) {
	var pars FloatParameters
	a, b := 1.0, 2.0
	pars.Append(NewBasicFloatParameter(&a, "a"))
	pars.Append(NewBasicFloatParameter(&b, "b"))
	if err := pars.SetFromMap(map[string]float64{"a": 3}); err == nil {
		tst.Error("Expected error for a missing parameter")
	}
	if err := pars.SetFromMap(map[string]float64{"a": 3, "b": 4, "c": 5}); err != nil {
		tst.Error("Error: ", err)
	}
	if a != 3 || b != 4 {
		tst.Error("Wrong values:", a, b)
	}
	if m := pars.Map(); len(m) != 2 || m["b"] != 4 {
		tst.Error("Wrong map:", m)
	}
}

func TestReadLine(tst *testing.T) {
	var pars FloatParameters
	a, b := 1.0, 2.0
	pars.Append(NewBasicFloatParameter(&a, "a"))
	pars.Append(NewBasicFloatParameter(&b, "b"))
	if err := pars.ReadLine("100\t-23.5\t0.25 1e-3"); err != nil {
		tst.Fatal("Error: ", err)
	}
	if a != 0.25 || b != 1e-3 {
		tst.Error("Wrong values:", a, b)
	}
	if err := pars.ReadLine("100\t-23.5\t0.25"); err == nil {
		tst.Error("Expected error for a short line")
	}
	if err := pars.ReadLine("100\t-23.5\tx 1"); err == nil {
		tst.Error("Expected error for a malformed line")
	}
}
