package integration

// reservoirPage mimics a reservoir report: a header, units, a blank line, data
// rows and the trailing summary section.
const reservoirPage = `<!DOCTYPE html>
<html>
<head><title>Beaver Lake</title></head>
<body>
<h2>Beaver Dam - Beaver Lake</h2>
<pre>
                    Elevation  Tailwater  Generation  Turbine   Spillway   Total
  Date     Time     (ft-msl)   (ft-msl)   (MWh)       Release   Release    Release
                                                      (cfs)     (cfs)      (cfs)

01JAN2024  0600     723.41     553.20     120         10400     0          10400
01JAN2024  0700     723.40     553.35     ----        10400     0          10400
01JAN2024  2400     723.38     553.31     118         10200     0          10200
 
02JAN2024  0100     723.37     553.30     118         10200     0          10200
7-Day Summary
02JAN2024  0200     999.99     999.99     999         99999     0          99999
</pre>
<pre>
01JAN2024  0600  not the data block
</pre>
</body>
</html>`
