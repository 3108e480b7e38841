package checker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ZoniBoy00/steam-account-checker-e2/internal/client"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/model"
)

const testSteamID = "76561198123456789"

// buildJWT 构造一个三段式测试凭证
func buildJWT(payload string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"EdDSA","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return header + "." + body + ".c2ln"
}

func validLine(username string) string {
	return username + "----" + buildJWT(`{"sub":"`+testSteamID+`","exp":9999999999}`)
}

// stubSteam 资料/封禁查询替身，panicOn命中时模拟未预期异常
type stubSteam struct {
	profiles     map[string]*client.PlayerProfile
	panicOn      string
	summaryCalls int
	banCalls     int
}

func (s *stubSteam) GetPlayerSummary(_ context.Context, steamID, _ string) *client.PlayerProfile {
	s.summaryCalls++
	if s.panicOn != "" && steamID == s.panicOn {
		panic("stub boom")
	}
	if p, ok := s.profiles[steamID]; ok {
		return p
	}
	return client.SentinelProfile()
}

func (s *stubSteam) GetPlayerBans(_ context.Context, steamID, _ string) *model.BanFlags {
	s.banCalls++
	return &model.BanFlags{EconomyStatus: model.EconomyNone}
}

type stubInventory struct {
	calls []string
}

func (s *stubInventory) GetInventorySummary(_ context.Context, steamID string) *model.InventorySummary {
	s.calls = append(s.calls, steamID)
	return &model.InventorySummary{ItemCount: 7}
}

func newTestChecker(steam *stubSteam, inv *stubInventory) *Checker {
	return NewChecker(steam, inv, zap.NewNop(), 0)
}

func realProfile(name string) *client.PlayerProfile {
	return &client.PlayerProfile{
		DisplayName:       name,
		RealName:          model.SentinelNotSpecified,
		ProfileURL:        "https://steamcommunity.com/profiles/" + testSteamID,
		CreationTimestamp: 1300000000,
	}
}

func TestRunBatch_MissingAPIKey(t *testing.T) {
	steam := &stubSteam{}
	c := newTestChecker(steam, &stubInventory{})

	records, _, err := c.RunBatch(context.Background(), []string{validLine("a")}, "", false, nil)

	if err != ErrMissingAPIKey {
		t.Fatalf("空API key应立即失败，实际err=%v", err)
	}
	if len(records) != 0 {
		t.Errorf("批次级失败不应产生记录，实际 %d 条", len(records))
	}
	if steam.summaryCalls != 0 {
		t.Error("批次级失败不应发起任何查询")
	}
}

func TestRunBatch_SequenceStability(t *testing.T) {
	// 中间混入必panic的条目和无法解析的条目，序号仍须连续
	panicID := "76561198000000001"
	panicLine := "boom----" + buildJWT(`{"sub":"76561198000000001","exp":9999999999}`)

	steam := &stubSteam{
		profiles: map[string]*client.PlayerProfile{testSteamID: realProfile("gaben")},
		panicOn:  panicID,
	}
	c := newTestChecker(steam, &stubInventory{})

	lines := []string{validLine("a"), panicLine, "total garbage", validLine("d")}
	records, _, err := c.RunBatch(context.Background(), lines, "key", false, nil)

	if err != nil {
		t.Fatalf("单条失败不应中断批次: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("输出记录数应为4，实际 %d", len(records))
	}
	for i, r := range records {
		if r.SequenceNumber != i+1 {
			t.Errorf("第%d条序号应为%d，实际为 %d", i, i+1, r.SequenceNumber)
		}
	}

	if records[1].Status != model.StatusError {
		t.Errorf("panic条目应合成Error记录，实际为 %q", records[1].Status)
	}
	if records[1].RawInput != panicLine {
		t.Error("Error记录应保留原始输入")
	}
	if records[0].Status != model.StatusValid || records[3].Status != model.StatusValid {
		t.Errorf("正常条目不受相邻失败影响: %q / %q", records[0].Status, records[3].Status)
	}
}

func TestRunBatch_FiltersEmptyLines(t *testing.T) {
	steam := &stubSteam{
		profiles: map[string]*client.PlayerProfile{testSteamID: realProfile("gaben")},
	}
	c := newTestChecker(steam, &stubInventory{})

	lines := []string{"", validLine("a"), "   ", "\t", validLine("b"), ""}
	records, stats, err := c.RunBatch(context.Background(), lines, "key", false, nil)

	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || stats.Total != 2 {
		t.Errorf("空行应在进入流水线前过滤，实际 %d 条记录 total=%d", len(records), stats.Total)
	}
}

func TestRunBatch_StatsMatchFold(t *testing.T) {
	steam := &stubSteam{
		profiles: map[string]*client.PlayerProfile{testSteamID: realProfile("gaben")},
	}
	c := newTestChecker(steam, &stubInventory{})

	lines := []string{
		validLine("a"),
		"expired----" + buildJWT(`{"sub":"`+testSteamID+`","exp":1}`),
		"not a token at all",
		"c----two.parts",
	}
	records, stats, err := c.RunBatch(context.Background(), lines, "key", false, nil)
	if err != nil {
		t.Fatal(err)
	}

	if folded := FoldStatistics(records); folded != stats {
		t.Errorf("流式统计与纯折叠结果不一致:\n流式 %+v\n折叠 %+v", stats, folded)
	}
	if stats.Total != 4 {
		t.Errorf("total应为4，实际 %d", stats.Total)
	}
	if sum := stats.Valid + stats.Invalid + stats.Expired + stats.AccountNotFound + stats.LimitedProfile; sum != stats.Total {
		t.Errorf("各状态计数之和 %d 应等于 total %d", sum, stats.Total)
	}
	if stats.Expired != 1 {
		t.Errorf("expired应为1，实际 %d", stats.Expired)
	}
}

func TestRunBatch_ProgressCallback(t *testing.T) {
	steam := &stubSteam{}
	c := newTestChecker(steam, &stubInventory{})

	var progress [][2]int
	lines := []string{validLine("a"), validLine("b"), validLine("c")}
	_, _, err := c.RunBatch(context.Background(), lines, "key", false, func(current, total int) {
		progress = append(progress, [2]int{current, total})
	})
	if err != nil {
		t.Fatal(err)
	}

	want := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if len(progress) != len(want) {
		t.Fatalf("进度回调次数应为 %d，实际 %d", len(want), len(progress))
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("第%d次进度应为 %v，实际为 %v", i+1, want[i], progress[i])
		}
	}
}

func TestRunBatch_Cancellation(t *testing.T) {
	steam := &stubSteam{}
	c := newTestChecker(steam, &stubInventory{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, _, err := c.RunBatch(ctx, []string{validLine("a"), validLine("b")}, "key", false, nil)

	if err == nil {
		t.Fatal("已取消的ctx应返回错误")
	}
	if len(records) != 0 {
		t.Errorf("取消发生在第一条之前，不应有记录，实际 %d 条", len(records))
	}
}

func TestRunBatch_InventoryOptIn(t *testing.T) {
	steam := &stubSteam{
		profiles: map[string]*client.PlayerProfile{testSteamID: realProfile("gaben")},
	}
	inv := &stubInventory{}
	c := newTestChecker(steam, inv)

	// 关闭开关时不查库存
	records, _, err := c.RunBatch(context.Background(), []string{validLine("a")}, "key", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(inv.calls) != 0 {
		t.Errorf("未开启库存检测不应查询，实际查询 %d 次", len(inv.calls))
	}
	if records[0].Inventory != nil {
		t.Error("未开启库存检测记录不应带库存摘要")
	}

	// 开启开关：只对解出ID的条目查询
	records, _, err = c.RunBatch(context.Background(), []string{validLine("a"), "garbage line"}, "key", true, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(inv.calls) != 1 || inv.calls[0] != testSteamID {
		t.Errorf("应只对解出ID的条目查库存，实际 %v", inv.calls)
	}
	if records[0].Inventory == nil || records[0].Inventory.ItemCount != 7 {
		t.Errorf("开启后记录应带库存摘要: %+v", records[0].Inventory)
	}
	if records[1].Inventory != nil {
		t.Error("无ID条目不应带库存摘要")
	}
}

// TestRunBatch_ProfileDegradation 场景E：资料查询降级为哨兵后
// 有效凭证的条目按资料哨兵规则收尾，批次不受影响
func TestRunBatch_ProfileDegradation(t *testing.T) {
	steam := &stubSteam{} // 所有查询返回全哨兵资料
	c := newTestChecker(steam, &stubInventory{})

	records, _, err := c.RunBatch(context.Background(), []string{validLine("a"), validLine("b")}, "key", false, nil)
	if err != nil {
		t.Fatal(err)
	}

	for i, r := range records {
		if r.Status != model.StatusAccountNotFound {
			t.Errorf("第%d条全哨兵资料应判定为AccountNotFound，实际为 %q", i+1, r.Status)
		}
		if r.Status == model.StatusError {
			t.Error("查询降级不应产生Error记录")
		}
	}
}

// TestRunBatch_UsernameFallback 资料无名字时退回Token自带的用户名
func TestRunBatch_UsernameFallback(t *testing.T) {
	steam := &stubSteam{}
	c := newTestChecker(steam, &stubInventory{})

	records, _, err := c.RunBatch(context.Background(), []string{validLine("player1")}, "key", false, nil)
	if err != nil {
		t.Fatal(err)
	}

	if records[0].DisplayName != "player1" {
		t.Errorf("展示名应退回Token用户名 player1，实际为 %q", records[0].DisplayName)
	}
}

// TestRunBatch_RawInputNotSerialized 原始Token只驻留内存，不进序列化输出
func TestRunBatch_RawInputNotSerialized(t *testing.T) {
	steam := &stubSteam{}
	c := newTestChecker(steam, &stubInventory{})

	line := validLine("a")
	records, _, err := c.RunBatch(context.Background(), []string{line}, "key", false, nil)
	if err != nil {
		t.Fatal(err)
	}

	if records[0].RawInput != line {
		t.Error("内存中的记录应保留原始输入")
	}

	js, err := json.Marshal(records[0])
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(js), line) || strings.Contains(string(js), buildJWT(`{"sub":"`+testSteamID+`","exp":9999999999}`)) {
		t.Error("序列化输出不应包含原始Token")
	}
}
