package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// rawCSV is {A,B},{A,B,C},{A,C},{B,C} plus one duplicate line and one line
// with a missing item.
const rawCSV = `transaction_id,item,quantity,transaction_date
1,A,1,2024-01-01
1,B,1,2024-01-01
2,A,1,2024-01-02
2,B,2,2024-01-02
2,C,1,2024-01-02
3,A,1,2024-01-03
3,C,1,2024-01-03
4,B,1,2024-01-04
4,C,1,2024-01-04
4,C,1,2024-01-04
5,,1,2024-01-05
`

// matrixCSV is the same four baskets after cleaning and pivoting.
const matrixCSV = `transaction_id,A,B,C
1,1,1,0
2,1,1,1
3,1,0,1
4,0,1,1
`

// execute runs cmd with args and returns what it wrote to stdout. Logs and
// verbose output go to a separate buffer.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeResponse parses a JSON CLIResponse whose data has type T.
func decodeResponse[T any](t *testing.T, out string) (CLIResponse, T) {
	t.Helper()
	var raw struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)

	var data T
	if len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, &data))
	}
	return raw.CLIResponse, data
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// createRetailDB writes the four baskets into a transactions table.
func createRetailDB(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "retail.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE transactions (transaction_id INTEGER, item TEXT, quantity INTEGER, transaction_date TEXT);
		INSERT INTO transactions VALUES
			(1, 'A', 1, '2024-01-01'), (1, 'B', 1, '2024-01-01'),
			(2, 'A', 1, '2024-01-02'), (2, 'B', 2, '2024-01-02'), (2, 'C', 1, '2024-01-02'),
			(3, 'A', 1, '2024-01-03'), (3, 'C', 1, '2024-01-03'),
			(4, 'B', 1, '2024-01-04'), (4, 'C', 1, '2024-01-04');
	`)
	require.NoError(t, err)
	return path
}
