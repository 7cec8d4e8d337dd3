// Package web serves the prediction front ends over HTTP.
//
// Routes:
//
//	GET  /            form page
//	POST /predict     form submission, re-renders the form with the result
//	GET  /dashboard   slider dashboard driven by the JSON endpoint
//	POST /api/predict JSON prediction
//	GET  /healthz     liveness
//	GET  /metrics     Prometheus metrics
//
// Every prediction goes through the Predictor, which loads artifacts from
// disk per request. Input is validated before it reaches the model; model
// failures are logged with their kind and surfaced to users only as a
// generic message.
package web
