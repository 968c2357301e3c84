// Package main builds the js/wasm binding exposing internal/hostapi's
// stateless operations to a browser: solveDeal, solveManyDeals,
// solveManyPlays, analyzeDealPlay, and playMenu. Each takes its
// argument as JSON and a synchronous oracle callback, and returns a
// Promise resolving to a JSON result, the same Promise-wrapping shape
// the original poker binding used for its solve() entry point.
package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/behrlich/bridge-solver/internal/hostapi"
	"github.com/behrlich/bridge-solver/pkg/ddoracle"
)

func main() {
	js.Global().Set("bridgeSolver", makeBridgeSolverAPI())
	select {}
}

func makeBridgeSolverAPI() js.Value {
	api := make(map[string]interface{})
	api["solveDeal"] = js.FuncOf(wrap(solveDealArgs))
	api["solveManyDeals"] = js.FuncOf(wrap(solveManyDealsArgs))
	api["solveManyPlays"] = js.FuncOf(wrap(solveManyPlaysArgs))
	api["analyzeDealPlay"] = js.FuncOf(wrap(analyzeDealPlayArgs))
	api["playMenu"] = js.FuncOf(wrap(playMenuArgs))
	api["version"] = "1.0.0"
	return js.ValueOf(api)
}

// jsOracle adapts a synchronous JS callback — string(JSON BatchRequest)
// in, string(JSON BatchResult) out — to ddoracle.Oracle.
type jsOracle struct {
	fn js.Value
}

func (o jsOracle) SolveBatch(req ddoracle.BatchRequest) (ddoracle.BatchResult, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return ddoracle.BatchResult{}, fmt.Errorf("wasm: encode oracle request: %w", err)
	}
	respVal := o.fn.Invoke(string(reqJSON))
	if respVal.Type() != js.TypeString {
		return ddoracle.BatchResult{}, fmt.Errorf("wasm: oracle callback did not return a string")
	}
	var result ddoracle.BatchResult
	if err := json.Unmarshal([]byte(respVal.String()), &result); err != nil {
		return ddoracle.BatchResult{}, fmt.Errorf("wasm: decode oracle response: %w", err)
	}
	return result, nil
}

// wrap turns an (args JSON string, oracle) -> (result, error) function
// into a js.Func that returns a Promise, matching every call's
// Invoke(argsJSON, oracleCallback) signature from the JS side.
func wrap(fn func(argsJSON string, oracle ddoracle.Oracle) (interface{}, error)) func(this js.Value, args []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 2 {
			return js.ValueOf(map[string]interface{}{"error": "usage: fn(argsJSON, oracleCallback)"})
		}
		argsJSON := args[0].String()
		oracle := jsOracle{fn: args[1]}

		promiseConstructor := js.Global().Get("Promise")
		handler := js.FuncOf(func(this js.Value, promiseArgs []js.Value) interface{} {
			resolve := promiseArgs[0]
			reject := promiseArgs[1]

			go func() {
				defer func() {
					if r := recover(); r != nil {
						reject.Invoke(js.ValueOf(fmt.Sprintf("panic: %v", r)))
					}
				}()

				result, err := fn(argsJSON, oracle)
				if err != nil {
					reject.Invoke(js.ValueOf(err.Error()))
					return
				}
				resultJSON, err := json.Marshal(result)
				if err != nil {
					reject.Invoke(js.ValueOf(err.Error()))
					return
				}
				resolve.Invoke(js.ValueOf(string(resultJSON)))
			}()
			return nil
		})
		return promiseConstructor.New(handler)
	}
}

func solveDealArgs(argsJSON string, oracle ddoracle.Oracle) (interface{}, error) {
	var in struct {
		Deal      hostapi.DealSpec
		Declarer  string
		Strain    string
	}
	if err := json.Unmarshal([]byte(argsJSON), &in); err != nil {
		return nil, err
	}
	return hostapi.SolveDeal(in.Deal, in.Declarer, in.Strain, oracle)
}

func solveManyDealsArgs(argsJSON string, oracle ddoracle.Oracle) (interface{}, error) {
	var in struct {
		Deals      []hostapi.DealSpec
		Declarers  []string
		Strains    []string
	}
	if err := json.Unmarshal([]byte(argsJSON), &in); err != nil {
		return nil, err
	}
	return hostapi.SolveManyDeals(in.Deals, in.Declarers, in.Strains, oracle)
}

func solveManyPlaysArgs(argsJSON string, oracle ddoracle.Oracle) (interface{}, error) {
	var in struct {
		Queries []hostapi.PlayQuery
	}
	if err := json.Unmarshal([]byte(argsJSON), &in); err != nil {
		return nil, err
	}
	return hostapi.SolveManyPlays(in.Queries, oracle)
}

func analyzeDealPlayArgs(argsJSON string, oracle ddoracle.Oracle) (interface{}, error) {
	var in struct {
		Deal     hostapi.DealSpec
		Declarer string
		Strain   string
		History  string
	}
	if err := json.Unmarshal([]byte(argsJSON), &in); err != nil {
		return nil, err
	}
	return hostapi.AnalyzeDealPlay(in.Deal, in.Declarer, in.Strain, in.History, oracle)
}

func playMenuArgs(argsJSON string, oracle ddoracle.Oracle) (interface{}, error) {
	var in struct {
		Deal       hostapi.DealSpec
		OnPlay     string
		Strain     string
		TrickSoFar string
	}
	if err := json.Unmarshal([]byte(argsJSON), &in); err != nil {
		return nil, err
	}
	return hostapi.PlayMenu(in.Deal, in.OnPlay, in.Strain, in.TrickSoFar, oracle)
}
