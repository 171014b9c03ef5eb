package consensus

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/powledger/config"
	"github.com/Klingon-tech/powledger/pkg/block"
	"github.com/Klingon-tech/powledger/pkg/types"
)

var testTime = time.Unix(1700000000, 0)

// testPoW returns an engine with a fixed clock and a captured logger.
func testPoW(t *testing.T, difficulty int) (*PoW, *bytes.Buffer) {
	t.Helper()
	pow, err := NewPoW(difficulty)
	if err != nil {
		t.Fatalf("NewPoW(%d): %v", difficulty, err)
	}
	var buf bytes.Buffer
	pow.Logger = zerolog.New(&buf)
	pow.Now = func() time.Time { return testTime }
	return pow, &buf
}

func TestNewPoW_ZeroDifficulty(t *testing.T) {
	_, err := NewPoW(0)
	if err != ErrZeroDifficulty {
		t.Fatalf("NewPoW(0) err = %v, want ErrZeroDifficulty", err)
	}
	_, err = NewPoW(-1)
	if err != ErrZeroDifficulty {
		t.Fatalf("NewPoW(-1) err = %v, want ErrZeroDifficulty", err)
	}
}

func TestNewPoW_TooHard(t *testing.T) {
	_, err := NewPoW(types.HexSize + 1)
	if !errors.Is(err, ErrBadDifficulty) {
		t.Fatalf("NewPoW(65) err = %v, want ErrBadDifficulty", err)
	}
}

func TestMeetsDifficulty(t *testing.T) {
	h := types.MustHexToHash("0000" + strings.Repeat("a", 60))
	if !MeetsDifficulty(h, 4) {
		t.Error("0000a... should meet difficulty 4")
	}
	if MeetsDifficulty(h, 5) {
		t.Error("0000a... should not meet difficulty 5")
	}
}

func TestPoW_Mine_KnownVector(t *testing.T) {
	pow, _ := testPoW(t, config.Difficulty)

	blk := pow.Mine(2, block.GenesisHash, []byte("Data"))

	if blk.Nonce != 25306 {
		t.Errorf("nonce = %d, want 25306", blk.Nonce)
	}
	want := "000036211c3c381d79808f8f57f3fc092a5dc3e091d50e6d010a472decb971a8"
	if blk.Hash.String() != want {
		t.Errorf("hash = %s, want %s", blk.Hash, want)
	}
	if blk.Timestamp != testTime.Unix() {
		t.Errorf("timestamp = %d, want %d", blk.Timestamp, testTime.Unix())
	}
	if blk.Index != 2 || blk.PrevHash != block.GenesisHash || string(blk.Payload) != "Data" {
		t.Errorf("fields not carried through: %s", blk)
	}
}

func TestPoW_Mine_FirstNonceWins(t *testing.T) {
	// At difficulty 3 the first qualifying nonce for this block is 1796.
	pow, _ := testPoW(t, 3)
	blk := pow.Mine(2, block.GenesisHash, []byte("Data"))
	if blk.Nonce != 1796 {
		t.Errorf("nonce = %d, want 1796 (lowest qualifying nonce)", blk.Nonce)
	}
}

func TestPoW_Mine_Postcondition(t *testing.T) {
	pow, _ := testPoW(t, config.Difficulty)
	pow.Now = nil // real clock

	payloads := []string{"", "Data", "Data1", strings.Repeat("x", 500)}
	for i, p := range payloads {
		blk := pow.Mine(uint64(i+2), block.GenesisHash, []byte(p))
		if !strings.HasPrefix(blk.Hash.String(), "0000") {
			t.Errorf("payload %d: hash %s lacks 0000 prefix", i, blk.Hash)
		}
		if err := blk.VerifyHash(); err != nil {
			t.Errorf("payload %d: %v", i, err)
		}
		if err := pow.VerifyBlock(blk); err != nil {
			t.Errorf("payload %d: VerifyBlock: %v", i, err)
		}
	}
}

func TestPoW_Mine_Parallel(t *testing.T) {
	pow, _ := testPoW(t, config.Difficulty)
	pow.Threads = 4

	blk := pow.Mine(2, block.GenesisHash, []byte("Data"))
	if err := blk.VerifyHash(); err != nil {
		t.Fatalf("parallel block: %v", err)
	}
	if err := pow.VerifyBlock(blk); err != nil {
		t.Fatalf("parallel block: VerifyBlock: %v", err)
	}
	if blk.Nonce == 0 {
		t.Error("nonce 0 is never searched")
	}
}

func TestPoW_MineCtx_Cancelled(t *testing.T) {
	for _, threads := range []int{1, 4} {
		// 64 leading zeros is unreachable; only cancellation ends the search.
		pow, _ := testPoW(t, types.HexSize)
		pow.Threads = threads

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		blk, err := pow.MineCtx(ctx, 2, block.GenesisHash, []byte("Data"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("threads=%d: err = %v, want context.Canceled", threads, err)
		}
		if blk != nil {
			t.Errorf("threads=%d: cancelled mining returned a block", threads)
		}
	}
}

func TestPoW_MineCtx_Timeout(t *testing.T) {
	pow, _ := testPoW(t, types.HexSize)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := pow.MineCtx(ctx, 2, block.GenesisHash, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestPoW_MineCtx_ZeroDifficulty(t *testing.T) {
	pow := &PoW{}
	if _, err := pow.MineCtx(context.Background(), 2, types.Hash{}, nil); err != ErrZeroDifficulty {
		t.Fatalf("err = %v, want ErrZeroDifficulty", err)
	}
}

func TestPoW_Mine_PanicsOnInvalidEngine(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Mine on a zero-value engine should panic")
		}
	}()
	pow := &PoW{}
	pow.Mine(2, types.Hash{}, nil)
}

func TestPoW_VerifyBlock_Rejects(t *testing.T) {
	pow, _ := testPoW(t, config.Difficulty)

	blk := &block.Block{
		Index: 2,
		Hash:  types.MustHexToHash("000a" + strings.Repeat("0", 60)),
	}
	if err := pow.VerifyBlock(blk); !errors.Is(err, ErrInsufficientWork) {
		t.Fatalf("VerifyBlock(000a...) = %v, want ErrInsufficientWork", err)
	}
	if err := pow.VerifyBlock(nil); err != block.ErrNilBlock {
		t.Fatalf("VerifyBlock(nil) = %v, want ErrNilBlock", err)
	}
}

func TestPoW_VerifyBlock_Genesis(t *testing.T) {
	// Genesis passes the difficulty check as data.
	pow, _ := testPoW(t, config.Difficulty)
	if err := pow.VerifyBlock(block.Genesis(testTime.Unix())); err != nil {
		t.Fatalf("genesis VerifyBlock: %v", err)
	}
}

func TestPoW_Mine_ReportsProgress(t *testing.T) {
	pow, buf := testPoW(t, config.Difficulty)
	pow.Mine(2, block.GenesisHash, []byte("Data"))

	out := buf.String()
	if !strings.Contains(out, `"message":"mining block"`) {
		t.Errorf("missing start message: %s", out)
	}
	if !strings.Contains(out, `"message":"mined block"`) || !strings.Contains(out, `"nonce":25306`) {
		t.Errorf("missing result message: %s", out)
	}
}
