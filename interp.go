package ephem

// lagrange evaluates at t the polynomial through (x_i, y_i) with Neville's algorithm.
func lagrange(x, y []float64, t float64) float64 {
	p := append([]float64(nil), y...)
	n := len(x)
	for k := 1; k < n; k++ {
		for i := 0; i < n-k; i++ {
			p[i] = ((t-x[i+k])*p[i] + (x[i]-t)*p[i+1]) / (x[i] - x[i+k])
		}
	}
	return p[0]
}

// hermite evaluates at t the Hermite polynomial matching the values f_i and the derivatives
// df_i at the nodes x_i, along with its derivative. The divided differences are computed on
// the doubled nodes and the Newton form is evaluated with Horner's scheme.
func hermite(x, f, df []float64, t float64) (val, deriv float64) {
	m := 2 * len(x)
	if m == 0 {
		return
	}
	z := make([]float64, m)
	q := make([][]float64, m)
	for i := range q {
		q[i] = make([]float64, i+1)
	}
	for i := range x {
		z[2*i], z[2*i+1] = x[i], x[i]
		q[2*i][0], q[2*i+1][0] = f[i], f[i]
		q[2*i+1][1] = df[i]
		if i > 0 {
			q[2*i][1] = (q[2*i][0] - q[2*i-1][0]) / (z[2*i] - z[2*i-1])
		}
	}
	for i := 2; i < m; i++ {
		for j := 2; j <= i; j++ {
			q[i][j] = (q[i][j-1] - q[i-1][j-1]) / (z[i] - z[i-j])
		}
	}
	val = q[m-1][m-1]
	for k := m - 2; k >= 0; k-- {
		deriv = deriv*(t-z[k]) + val
		val = val*(t-z[k]) + q[k][k]
	}
	return
}
